package parser

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// parserPool hands out parsers bound to one grammar. Parsers are created
// lazily up to maxSize; once that many exist, acquire blocks until one is
// released.
//
// The pool size MUST match the scanner worker count (util.GetOptimalPoolSize)
// or workers stall waiting for parsers.
type parserPool struct {
	pool     chan *ts.Parser
	language *ts.Language
	key      poolKey
	maxSize  int

	mutex   sync.Mutex
	created int

	logger *slog.Logger
}

func newParserPool(key poolKey, language *ts.Language, maxSize int, logger *slog.Logger) *parserPool {
	return &parserPool{
		pool:     make(chan *ts.Parser, maxSize),
		language: language,
		key:      key,
		maxSize:  maxSize,
		logger:   logger,
	}
}

func (p *parserPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.pool:
		return parser, nil
	default:
		return p.createParserIfNeeded()
	}
}

func (p *parserPool) createParserIfNeeded() (*ts.Parser, error) {
	p.mutex.Lock()
	if p.created >= p.maxSize {
		p.mutex.Unlock()
		parser, ok := <-p.pool
		if !ok {
			return nil, fmt.Errorf("parser pool for %s closed", p.key)
		}
		return parser, nil
	}

	parser := ts.NewParser()
	if parser == nil {
		p.mutex.Unlock()
		return nil, fmt.Errorf("failed to create parser")
	}
	if err := parser.SetLanguage(p.language); err != nil {
		parser.Close()
		p.mutex.Unlock()
		return nil, fmt.Errorf("failed to set language %s: %w", p.key, err)
	}
	p.created++
	created := p.created
	p.mutex.Unlock()

	p.logger.Debug("created parser", "grammar", p.key.String(), "pool_size", created)
	return parser, nil
}

func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.pool <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool full, closing excess parser", "grammar", p.key.String())
	}
}

func (p *parserPool) close() int {
	close(p.pool)
	count := 0
	for parser := range p.pool {
		parser.Close()
		count++
	}
	return count
}

func (p *parserPool) createdCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.created
}
