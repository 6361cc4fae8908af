// Package requestlog registra a proveniência de cada requisição (endereço de
// origem, usuário e horário) num arquivo append-only.
//
// O arquivo fica em <dir>/requests.log, uma linha por requisição no formato
//
//	2024-01-01 12:00:00,000 - INFO - IP: 1.2.3.4, User: Anonymous, Request Time: 2024-01-01 12:00:00.000000
//
// A escrita passa por um buffer (zapcore.BufferedWriteSyncer) e nunca segura a
// requisição. Open é idempotente por caminho; se o diretório ou o arquivo não
// puderem ser criados, devolve um sink no-op junto com o erro, e o tráfego segue.
package requestlog
