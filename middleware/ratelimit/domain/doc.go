// Package domain define contratos e tipos de domínio para rate limit e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura: papéis (Role) e sua tabela de limites, a
// decisão (Decision) com o motivo da negação, e os erros tipados.
package domain
