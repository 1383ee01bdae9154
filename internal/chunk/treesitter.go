package chunk

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// symbolKind classifies the code construct a parsed node represents, used
// to decide split strategy and to annotate the section path recorded on
// the resulting core.Chunk.
type symbolKind string

const (
	symbolFunction  symbolKind = "function"
	symbolMethod    symbolKind = "method"
	symbolClass     symbolKind = "class"
	symbolInterface symbolKind = "interface"
	symbolType      symbolKind = "type"
	symbolConstant  symbolKind = "constant"
	symbolVariable  symbolKind = "variable"
)

// languageConfig maps a language's tree-sitter node-type vocabulary onto
// the symbol kinds the code chunker understands.
type languageConfig struct {
	name           string
	extensions     []string
	functionTypes  []string
	methodTypes    []string
	classTypes     []string
	interfaceTypes []string
	typeDefTypes   []string
	constantTypes  []string
	variableTypes  []string
	nameField      string
}

// languageRegistry holds the set of languages the code chunker can parse.
type languageRegistry struct {
	mu          sync.RWMutex
	configs     map[string]*languageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

func newLanguageRegistry() *languageRegistry {
	r := &languageRegistry{
		configs:     make(map[string]*languageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}
	r.registerGo()
	r.registerTypeScript()
	r.registerJavaScript()
	r.registerPython()
	return r
}

func (r *languageRegistry) register(cfg *languageConfig, lang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.name] = cfg
	r.tsLanguages[cfg.name] = lang
	for _, ext := range cfg.extensions {
		r.extToLang[ext] = cfg.name
	}
}

func (r *languageRegistry) byName(name string) (*languageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

func (r *languageRegistry) treeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.tsLanguages[name]
	return lang, ok
}

func (r *languageRegistry) registerGo() {
	r.register(&languageConfig{
		name:          "go",
		extensions:    []string{".go"},
		functionTypes: []string{"function_declaration"},
		methodTypes:   []string{"method_declaration"},
		typeDefTypes:  []string{"type_declaration"},
		constantTypes: []string{"const_declaration"},
		variableTypes: []string{"var_declaration"},
		nameField:     "name",
	}, golang.GetLanguage())
}

func (r *languageRegistry) registerTypeScript() {
	ts := &languageConfig{
		name:           "typescript",
		extensions:     []string{".ts"},
		functionTypes:  []string{"function_declaration"},
		methodTypes:    []string{"method_definition"},
		classTypes:     []string{"class_declaration"},
		interfaceTypes: []string{"interface_declaration"},
		typeDefTypes:   []string{"type_alias_declaration"},
		constantTypes:  []string{"lexical_declaration"},
		variableTypes:  []string{"variable_declaration"},
		nameField:      "name",
	}
	r.register(ts, typescript.GetLanguage())

	tsx := &languageConfig{
		name: "tsx", extensions: []string{".tsx"},
		functionTypes: ts.functionTypes, methodTypes: ts.methodTypes,
		classTypes: ts.classTypes, interfaceTypes: ts.interfaceTypes,
		typeDefTypes: ts.typeDefTypes, constantTypes: ts.constantTypes,
		variableTypes: ts.variableTypes, nameField: ts.nameField,
	}
	r.register(tsx, tsxLang())
}

func tsxLang() *sitter.Language { return tsx.GetLanguage() }

func (r *languageRegistry) registerJavaScript() {
	js := &languageConfig{
		name:          "javascript",
		extensions:    []string{".js", ".mjs"},
		functionTypes: []string{"function_declaration", "function"},
		methodTypes:   []string{"method_definition"},
		classTypes:    []string{"class_declaration"},
		constantTypes: []string{"lexical_declaration"},
		variableTypes: []string{"variable_declaration"},
		nameField:     "name",
	}
	r.register(js, javascript.GetLanguage())

	jsx := &languageConfig{
		name: "jsx", extensions: []string{".jsx"},
		functionTypes: js.functionTypes, methodTypes: js.methodTypes,
		classTypes: js.classTypes, constantTypes: js.constantTypes,
		variableTypes: js.variableTypes, nameField: js.nameField,
	}
	r.register(jsx, javascript.GetLanguage())
}

func (r *languageRegistry) registerPython() {
	r.register(&languageConfig{
		name:          "python",
		extensions:    []string{".py"},
		functionTypes: []string{"function_definition"},
		classTypes:    []string{"class_definition"},
		variableTypes: []string{"assignment"},
		nameField:     "name",
	}, python.GetLanguage())
}

var defaultLanguageRegistry = newLanguageRegistry()

// astPoint is a 0-indexed row/column position in the source.
type astPoint struct {
	Row, Column uint32
}

// astNode is a simplified, tree-sitter-independent AST node used by the
// symbol walker and section-path builder.
type astNode struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint astPoint
	EndPoint   astPoint
	Children   []*astNode
}

func (n *astNode) content(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

func (n *astNode) walk(fn func(*astNode) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func (n *astNode) childrenByType(nodeType string) []*astNode {
	var out []*astNode
	for _, c := range n.Children {
		if c.Type == nodeType {
			out = append(out, c)
		}
	}
	return out
}

// astTree is a parsed source file.
type astTree struct {
	Root     *astNode
	Source   []byte
	Language string
}

// treeSitterParser wraps the tree-sitter bindings for the languages in
// defaultLanguageRegistry.
type treeSitterParser struct {
	parser   *sitter.Parser
	registry *languageRegistry
}

func newTreeSitterParser() *treeSitterParser {
	return &treeSitterParser{parser: sitter.NewParser(), registry: defaultLanguageRegistry}
}

func (p *treeSitterParser) parse(ctx context.Context, source []byte, language string) (*astTree, error) {
	lang, ok := p.registry.treeSitterLanguage(language)
	if !ok {
		return nil, fmt.Errorf("chunk: unsupported language %q", language)
	}
	p.parser.SetLanguage(lang)

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("chunk: parse failed: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("chunk: parse produced nil tree")
	}

	return &astTree{Root: convertNode(tree.RootNode()), Source: source, Language: language}, nil
}

func (p *treeSitterParser) close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

func convertNode(n *sitter.Node) *astNode {
	if n == nil {
		return nil
	}
	out := &astNode{
		Type:       n.Type(),
		StartByte:  n.StartByte(),
		EndByte:    n.EndByte(),
		StartPoint: astPoint{Row: n.StartPoint().Row, Column: n.StartPoint().Column},
		EndPoint:   astPoint{Row: n.EndPoint().Row, Column: n.EndPoint().Column},
		Children:   make([]*astNode, 0, n.ChildCount()),
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		if child := n.Child(int(i)); child != nil {
			out.Children = append(out.Children, convertNode(child))
		}
	}
	return out
}

// extractName pulls the identifier naming a symbol node: the first
// identifier, type_identifier or property_identifier child, falling back
// to the first child whose type contains "identifier". The grammar's name
// field (cfg.nameField) is not consulted.
func extractName(n *astNode, source []byte, cfg *languageConfig) string {
	for _, c := range n.Children {
		if c.Type == "identifier" || c.Type == "type_identifier" || c.Type == "property_identifier" {
			return c.content(source)
		}
	}
	for _, c := range n.Children {
		if strings.Contains(c.Type, "identifier") {
			return c.content(source)
		}
	}
	return ""
}
