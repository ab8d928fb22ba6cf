package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/borsokman/localhost/internal/herr"
)

// Parse lexes and recursive-descent parses src (the file at baseDir's
// sibling, used to resolve relative root/path directives) into a
// Config tree, following the grammar in SPEC_FULL.md §6.
func Parse(src string, baseDir string) (*Config, error) {
	p := &parser{lx: newLexer(src), baseDir: baseDir}
	if err := p.advance(); err != nil {
		return nil, herr.New(herr.CodeConfigParse, "lex error", err)
	}

	cfg := &Config{}
	for p.cur.kind != tokEOF {
		if err := p.expectIdent("server"); err != nil {
			return nil, herr.New(herr.CodeConfigParse, "expected server block", err)
		}
		srv, err := p.parseServer()
		if err != nil {
			return nil, herr.New(herr.CodeConfigParse, "failed to parse server block", err)
		}
		cfg.Servers = append(cfg.Servers, *srv)
	}
	return cfg, nil
}

type parser struct {
	lx      *lexer
	cur     token
	baseDir string
}

func (p *parser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expectIdent(text string) error {
	if p.cur.kind != tokIdent || p.cur.text != text {
		return fmt.Errorf("line %d: expected %q, got %q", p.cur.line, text, p.cur.text)
	}
	return p.advance()
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.cur.kind != kind {
		return token{}, fmt.Errorf("line %d: unexpected token %q", p.cur.line, p.cur.text)
	}
	t := p.cur
	return t, p.advance()
}

func (p *parser) resolvePath(raw string) string {
	if filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(p.baseDir, raw)
}

func (p *parser) parseServer() (*Server, error) {
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	s := &Server{}
	for p.cur.kind != tokRBrace {
		if p.cur.kind == tokEOF {
			return nil, fmt.Errorf("unexpected end of file in server block")
		}
		directive := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch directive {
		case "listen":
			v, err := p.directiveValue()
			if err != nil {
				return nil, err
			}
			s.Listen = append(s.Listen, normalizeListen(v))
		case "server_name":
			for p.cur.kind != tokSemi {
				s.ServerNames = append(s.ServerNames, p.cur.text)
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		case "root":
			v, err := p.directiveValue()
			if err != nil {
				return nil, err
			}
			s.Root = p.resolvePath(v)
		case "index":
			for p.cur.kind != tokSemi {
				s.Index = append(s.Index, p.cur.text)
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		case "error_page":
			code, err := p.number()
			if err != nil {
				return nil, err
			}
			v, err := p.directiveValue()
			if err != nil {
				return nil, err
			}
			s.Errors = append(s.Errors, ErrorPage{Code: code, Path: p.resolvePath(v)})
		case "client_max_body_size":
			n, err := p.numberSemi()
			if err != nil {
				return nil, err
			}
			s.ClientMaxBodySize = n
		case "keep_alive_timeout":
			n, err := p.numberSemi()
			if err != nil {
				return nil, err
			}
			s.KeepAliveTimeout = secondsToDuration(n)
		case "location":
			path := p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			loc, err := p.parseLocation(path)
			if err != nil {
				return nil, err
			}
			s.Locations = append(s.Locations, *loc)
		default:
			return nil, fmt.Errorf("line %d: unknown server directive %q", p.cur.line, directive)
		}
	}
	return s, p.advance()
}

func (p *parser) parseLocation(path string) (*Location, error) {
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	loc := &Location{Path: path}
	for p.cur.kind != tokRBrace {
		if p.cur.kind == tokEOF {
			return nil, fmt.Errorf("unexpected end of file in location block")
		}
		directive := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch directive {
		case "root":
			v, err := p.directiveValue()
			if err != nil {
				return nil, err
			}
			loc.Root = p.resolvePath(v)
		case "methods":
			for p.cur.kind != tokSemi {
				loc.Methods = append(loc.Methods, Method(p.cur.text))
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		case "redirect":
			v, err := p.directiveValue()
			if err != nil {
				return nil, err
			}
			loc.Redirect = v
		case "autoindex":
			v, err := p.directiveValue()
			if err != nil {
				return nil, err
			}
			loc.Autoindex = v == "on"
		case "default_file":
			v, err := p.directiveValue()
			if err != nil {
				return nil, err
			}
			loc.DefaultFile = v
		case "cgi":
			ext := p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			interp, err := p.directiveValue()
			if err != nil {
				return nil, err
			}
			loc.Cgi = &Cgi{Extension: ext, Interpreter: interp}
		case "body_limit":
			n, err := p.numberSemi()
			if err != nil {
				return nil, err
			}
			loc.BodyLimit = n
		default:
			return nil, fmt.Errorf("line %d: unknown location directive %q", p.cur.line, directive)
		}
	}
	return loc, p.advance()
}

// directiveValue reads a single token value followed by a semicolon.
func (p *parser) directiveValue() (string, error) {
	v := p.cur.text
	if err := p.advance(); err != nil {
		return "", err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return "", err
	}
	return v, nil
}

func (p *parser) number() (int, error) {
	if p.cur.kind != tokNumber {
		return 0, fmt.Errorf("line %d: expected number, got %q", p.cur.line, p.cur.text)
	}
	n, err := strconv.Atoi(p.cur.text)
	if err != nil {
		return 0, err
	}
	return n, p.advance()
}

func (p *parser) numberSemi() (int64, error) {
	n, err := p.number()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return 0, err
	}
	return int64(n), nil
}

// normalizeListen expands a bare port directive to 0.0.0.0:<port>, per
// original_source's parse_listen_value.
func normalizeListen(v string) string {
	if _, err := strconv.Atoi(v); err == nil {
		return "0.0.0.0:" + v
	}
	return v
}

func secondsToDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}
