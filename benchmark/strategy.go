package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/asafpamzn/valkey-benchmark-go/client"
)

// Strategy executes one operation against a client and reports the payload
// bytes it moved. Errors are returned as values; the worker records them as
// failed samples and keeps going.
type Strategy interface {
	Run(ctx context.Context, c client.Client, key string) (tx, rx uint64, err error)
}

// Placeholders substituted per request in custom command templates.
const (
	tokenKey  = "__key__"
	tokenData = "__data__"
)

// NewStrategy builds the strategy selected by cfg. The choice is made once;
// workers invoke the result uniformly afterwards.
func NewStrategy(cfg *Config) (Strategy, error) {
	switch cfg.Command {
	case CommandSet:
		return &setStrategy{value: randomPayload(cfg.DataSize)}, nil
	case CommandGet:
		return getStrategy{}, nil
	case CommandScript:
		return &scriptStrategy{script: cfg.Script}, nil
	case CommandCustom:
		return newTemplateStrategy(cfg.CommandTemplate, randomPayload(cfg.DataSize))
	default:
		return nil, fmt.Errorf("unknown command type %q", cfg.Command)
	}
}

const payloadAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomPayload builds the value written by SET-style commands. Built once
// at configuration time and reused for every request.
func randomPayload(size int) string {
	b := make([]byte, size)
	for i := range b {
		b[i] = payloadAlphabet[rand.Intn(len(payloadAlphabet))]
	}
	return string(b)
}

type setStrategy struct {
	value string
}

func (s *setStrategy) Run(ctx context.Context, c client.Client, key string) (uint64, uint64, error) {
	if err := c.Set(ctx, key, s.value); err != nil {
		return 0, 0, err
	}
	return uint64(len(key) + len(s.value)), 0, nil
}

type getStrategy struct{}

func (getStrategy) Run(ctx context.Context, c client.Client, key string) (uint64, uint64, error) {
	v, _, err := c.Get(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	// A missing key is a completed request, not a failure.
	return uint64(len(key)), uint64(len(v)), nil
}

// scriptStrategy runs a server-side Lua script with the generated key as
// KEYS[1].
type scriptStrategy struct {
	script string
}

func (s *scriptStrategy) Run(ctx context.Context, c client.Client, key string) (uint64, uint64, error) {
	res, err := c.Eval(ctx, s.script, []string{key})
	if err != nil {
		return 0, 0, err
	}
	return uint64(len(s.script) + len(key)), replySize(res), nil
}

// templateStrategy issues an arbitrary command, e.g. "INCR __key__" or
// "SETEX __key__ 60 __data__". Tokens are substituted per request.
type templateStrategy struct {
	args []string
	data string
}

func newTemplateStrategy(template, data string) (*templateStrategy, error) {
	args := strings.Fields(template)
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command template")
	}
	return &templateStrategy{args: args, data: data}, nil
}

func (s *templateStrategy) Run(ctx context.Context, c client.Client, key string) (uint64, uint64, error) {
	args := make([]interface{}, len(s.args))
	var tx uint64
	for i, a := range s.args {
		if strings.Contains(a, tokenKey) {
			a = strings.ReplaceAll(a, tokenKey, key)
		}
		if strings.Contains(a, tokenData) {
			a = strings.ReplaceAll(a, tokenData, s.data)
		}
		tx += uint64(len(a))
		args[i] = a
	}
	res, err := c.Do(ctx, args...)
	if err != nil {
		return 0, 0, err
	}
	return tx, replySize(res), nil
}

func replySize(res interface{}) uint64 {
	switch v := res.(type) {
	case string:
		return uint64(len(v))
	case []byte:
		return uint64(len(v))
	default:
		return 0
	}
}
