package requestlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FileName = "requests.log"

	timeLayout = "2006-01-02 15:04:05,000"
)

// Sink é o destino das linhas de log de requisição.
type Sink struct {
	logger *zap.Logger
	buf    *zapcore.BufferedWriteSyncer
	file   *os.File
	path   string
	refs   int // donos vindos de Open; protegido por registryMu
}

var (
	registryMu sync.Mutex
	registry   = make(map[string]*Sink)
)

// Open devolve o sink de <dir>/requests.log, criando o diretório se preciso.
//
// Chamadas repetidas para o mesmo caminho devolvem o mesmo *Sink (um único
// writer por arquivo no processo). Cada Open bem-sucedido pede um Close; o
// arquivo só fecha no último. Em caso de erro o sink devolvido é no-op.
func Open(dir string) (*Sink, error) {
	path, err := filepath.Abs(filepath.Join(dir, FileName))
	if err != nil {
		return Nop(), fmt.Errorf("requestlog: resolve path: %w", err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if s, ok := registry[path]; ok {
		s.refs++
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Nop(), fmt.Errorf("requestlog: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return Nop(), fmt.Errorf("requestlog: open log file: %w", err)
	}

	buf := &zapcore.BufferedWriteSyncer{
		WS:            zapcore.AddSync(f),
		FlushInterval: time.Second,
	}
	s := newSink(buf)
	s.buf = buf
	s.file = f
	s.path = path
	s.refs = 1
	registry[path] = s
	return s, nil
}

// NewSink escreve direto em w, sem buffer. Útil para testes e stdout.
func NewSink(w io.Writer, opts ...zap.Option) *Sink {
	return newSink(zapcore.AddSync(w), opts...)
}

// Nop descarta tudo.
func Nop() *Sink {
	return &Sink{logger: zap.NewNop()}
}

func newSink(ws zapcore.WriteSyncer, opts ...zap.Option) *Sink {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), ws, zapcore.InfoLevel)
	return &Sink{logger: zap.New(core, opts...)}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
}

// Path devolve o arquivo de destino ("" para sinks sem arquivo).
func (s *Sink) Path() string { return s.path }

func (s *Sink) Observe(e Entry) {
	s.logger.Info(e.Message())
}

func (s *Sink) Sync() error {
	return s.logger.Sync()
}

// Close libera uma referência. Na última, descarrega o buffer, fecha o arquivo
// e libera o caminho no registro; antes disso os outros donos seguem escrevendo.
func (s *Sink) Close() error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if s.file == nil {
		return nil
	}
	if s.refs--; s.refs > 0 {
		return nil
	}
	if registry[s.path] == s {
		delete(registry, s.path)
	}

	var err error
	if s.buf != nil {
		err = s.buf.Stop()
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	return err
}
