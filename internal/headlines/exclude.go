package headlines

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bakkerme/reddit-scout/internal/sources/reddit"
)

// PostEnv is the environment an exclusion rule is evaluated against.
type PostEnv struct {
	Title       string
	Author      string
	URL         string
	Score       int
	NumComments int
	Stickied    bool
	NSFW        bool
}

// Exclusion drops posts matching a compiled boolean expression such as
// `Stickied || Score < 10`.
type Exclusion struct {
	source  string
	program *vm.Program
}

func CompileExclusion(rule string) (*Exclusion, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, fmt.Errorf("exclusion rule is empty")
	}
	program, err := expr.Compile(rule, expr.Env(PostEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile exclusion rule: %w", err)
	}
	return &Exclusion{source: rule, program: program}, nil
}

func (e *Exclusion) String() string {
	return e.source
}

// Excludes reports whether post matches the rule.
func (e *Exclusion) Excludes(post *reddit.Post) (bool, error) {
	out, err := expr.Run(e.program, PostEnv{
		Title:       post.Title,
		Author:      post.Author,
		URL:         post.URL,
		Score:       post.Score,
		NumComments: post.NumComments,
		Stickied:    post.Stickied,
		NSFW:        post.NSFW,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate exclusion rule: %w", err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("exclusion rule did not return bool")
	}
	return matched, nil
}
