// Package identity resolve quem está chamando.
//
// A autenticação em si é externa: o provedor (ex.: JWTAuthenticator) apenas
// coloca uma Identity no context da requisição. Os middlewares de rate limit e
// de log consultam FromContext e, sem identidade, caem para o endereço de origem
// (primeiro IP do X-Forwarded-For, depois RemoteAddr).
package identity
