// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janelas, sliding log, token bucket, semáforo, stats)
//   - ratelimit (este pacote): middlewares HTTP + escolha da política + extração de chave
//     + tradução para status/headers
//
// Fluxo no gateway:
//
//  1. Resolve a chave do cliente (usuário autenticado, senão XFF/RemoteAddr) e o papel
//  2. Chama a camada application para obter a decisão da política ativa
//  3. Se negado, responde 429 com {"error": "..."} (rate limit) ou 503 (concorrência)
//  4. Se permitido, chama o próximo handler (ex: reverse proxy)
//
// A política é escolhida no startup (NewLimiter) entre fixed-window, fixed-window-block,
// sliding-log e token-bucket; todas respondem pela mesma interface domain.Policy.
package ratelimit
