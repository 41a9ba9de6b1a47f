// Package lang defines the language registry: the immutable mapping from
// source file extensions to toolchain profiles, built once at startup and
// shared read-only by every pipeline worker.
package lang

import (
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/AlessandroHultman/fp-analysis/errors"
)

// SourcePlaceholder marks where the source file path is substituted into
// a frontend argv template.
const SourcePlaceholder = "{source}"

// Profile describes how one source language is lowered to LLVM IR.
type Profile struct {
	Ext      string   // file extension including the dot, e.g. ".c"
	Language string   // language token; also the results subdirectory stem
	Frontend []string // frontend argv template containing SourcePlaceholder
	Assembly bool     // frontend emits <base>.s that llvm-dis must lower first
}

// frontendTemplates holds the builtin frontend invocation per extension.
// Each template is shell-quoted and substitutes {source} for the file.
var frontendTemplates = map[string]string{
	".c":     "clang -emit-llvm -S {source}",
	".cpp":   "clang++ -emit-llvm -S {source}",
	".hs":    "ghc -fllvm -keep-llvm-files -O2 {source}",
	".rs":    "rustc --emit=llvm-ir {source}",
	".java":  "llvmc -emit-llvm {source}",
	".swift": "swiftc -emit-ir {source}",
	".scala": "scalac -Xassem-extdirs . {source}",
	".m":     "clang -emit-llvm -S {source} -fobjc-arc",
	".rb":    "ruby-llvm --emit-llvm {source}",
}

// tokenToExt maps --langs tokens to extensions. The mapping is injective:
// one profile per extension.
var tokenToExt = map[string]string{
	"c":           ".c",
	"c++":         ".cpp",
	"haskell":     ".hs",
	"rust":        ".rs",
	"java":        ".java",
	"swift":       ".swift",
	"scala":       ".scala",
	"objective-c": ".m",
	"ruby":        ".rb",
}

// extToLanguage is derived from tokenToExt at init.
var extToLanguage = func() map[string]string {
	m := make(map[string]string, len(tokenToExt))
	for token, ext := range tokenToExt {
		m[ext] = token
	}
	return m
}()

// Registry is the static, read-only extension→profile table shared by all
// workers. Exactly one instance exists per run; it is never mutated after
// construction.
type Registry struct {
	byExt map[string]Profile
}

// NewRegistry builds the registry from the builtin toolchain table,
// applying per-extension template overrides (keys without the dot).
// Invalid overrides fail construction; this runs before any task is
// scheduled.
func NewRegistry(overrides map[string]string) (*Registry, error) {
	byExt := make(map[string]Profile, len(frontendTemplates))

	for ext, template := range frontendTemplates {
		if o, ok := overrides[strings.TrimPrefix(ext, ".")]; ok {
			template = o
		}
		if !strings.Contains(template, SourcePlaceholder) {
			return nil, errors.Newf("frontend template for %s missing %s placeholder", ext, SourcePlaceholder)
		}
		argv, err := shellquote.Split(template)
		if err != nil {
			return nil, errors.Wrapf(err, "frontend template for %s", ext)
		}
		if len(argv) == 0 {
			return nil, errors.Newf("frontend template for %s is empty", ext)
		}

		byExt[ext] = Profile{
			Ext:      ext,
			Language: extToLanguage[ext],
			Frontend: argv,
			// scalac emits native assembly that llvm-dis lowers to IR
			Assembly: ext == ".scala",
		}
	}

	return &Registry{byExt: byExt}, nil
}

// Lookup returns the profile for an extension. A miss means the file is
// silently skipped by the pipeline; it is not an error.
func (r *Registry) Lookup(ext string) (Profile, bool) {
	p, ok := r.byExt[ext]
	return p, ok
}

// Extensions returns all supported extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Profiles returns all profiles sorted by language token.
func (r *Registry) Profiles() []Profile {
	profiles := make([]Profile, 0, len(r.byExt))
	for _, p := range r.byExt {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Language < profiles[j].Language })
	return profiles
}

// ResolveTokens maps --langs tokens (case-insensitive) to extensions.
// Unknown tokens are returned separately so the caller can report them;
// they never abort the run and contribute zero scheduled files.
func ResolveTokens(tokens []string) (exts []string, unknown []string) {
	for _, token := range tokens {
		ext, ok := tokenToExt[strings.ToLower(token)]
		if !ok {
			unknown = append(unknown, token)
			continue
		}
		exts = append(exts, ext)
	}
	return exts, unknown
}

// Tokens returns all supported language tokens, sorted.
func Tokens() []string {
	tokens := make([]string, 0, len(tokenToExt))
	for token := range tokenToExt {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
