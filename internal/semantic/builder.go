package semantic

import (
	"github.com/cwbudde/go-mjc/internal/ast"
	"github.com/cwbudde/go-mjc/internal/lexer"
	"github.com/cwbudde/go-mjc/internal/types"
)

// SymbolTableBuilder collects class, field and method signatures into
// the global class registry before analysis proper.
//
// It operates in two sweeps: the first registers every class name, the
// second resolves members. Registering all names first lets fields and
// parameters reference classes declared later in the file, including
// the declaring class itself.
type SymbolTableBuilder struct {
	registry *Registry
}

// NewSymbolTableBuilder creates a builder with an empty registry.
func NewSymbolTableBuilder() *SymbolTableBuilder {
	return &SymbolTableBuilder{registry: NewRegistry()}
}

// Build walks the program and returns the populated class registry.
func (b *SymbolTableBuilder) Build(program *ast.Program) (*Registry, error) {
	// Sweep A: register every class name.
	for _, cls := range program.Classes {
		name := cls.Name.Value
		if b.registry.Lookup(name) != nil {
			return nil, errorAt(AlreadyDeclaredClass, cls.Pos()).withName(name)
		}
		b.registry.Register(NewClassScope(name))
	}

	// Sweep B: resolve superclasses, fields and method signatures.
	for _, cls := range program.Classes {
		if err := b.buildClass(cls); err != nil {
			return nil, err
		}
	}
	return b.registry, nil
}

func (b *SymbolTableBuilder) buildClass(cls *ast.ClassDecl) error {
	scope := b.registry.Lookup(cls.Name.Value)

	if cls.Extends != nil {
		superScope := b.registry.Lookup(cls.Extends.Value)
		if superScope == nil {
			return errorAt(UndeclaredClass, cls.Pos()).withName(cls.Extends.Value)
		}
		scope.Superclass = superScope
	}

	for _, field := range cls.Fields {
		if err := b.buildField(scope, field); err != nil {
			return err
		}
	}

	for _, method := range cls.Methods {
		switch m := method.(type) {
		case *ast.MethodDecl:
			if err := b.buildMethod(scope, m); err != nil {
				return err
			}
		case *ast.MainMethodDecl:
			if err := b.buildMain(scope, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *SymbolTableBuilder) buildField(scope *ClassScope, field *ast.VarDecl) error {
	if scope.LookupLocal(field.Name.Value) != nil {
		return errorAt(AlreadyDeclaredField, field.Pos()).withName(field.Name.Value)
	}
	fieldType, err := b.resolveType(field.DeclType.Name, field.Pos())
	if err != nil {
		return err
	}
	scope.Define(field.Name.Value, fieldType)
	return nil
}

func (b *SymbolTableBuilder) buildMethod(scope *ClassScope, method *ast.MethodDecl) error {
	if scope.LookupLocal(method.Name.Value) != nil {
		return errorAt(AlreadyDeclaredMethod, method.Pos()).withName(method.Name.Value)
	}

	returnType, ok := types.Lookup(method.ReturnType.Name)
	if !ok {
		if b.registry.Lookup(method.ReturnType.Name) == nil {
			return errorAt(ReturnTypeMismatch, method.Pos()).withName(method.ReturnType.Name)
		}
		returnType = types.NewObject(method.ReturnType.Name)
	}

	sig := &types.MethodType{Return: returnType}
	for _, param := range method.Params {
		paramType, err := b.resolveType(param.DeclType.Name, param.Pos())
		if err != nil {
			return err
		}
		sig.Params = append(sig.Params, paramType)
		sig.ParamNames = append(sig.ParamNames, param.Name.Value)
	}

	scope.Define(method.Name.Value, sig)
	return nil
}

func (b *SymbolTableBuilder) buildMain(scope *ClassScope, main *ast.MainMethodDecl) error {
	if scope.LookupLocal("main") != nil {
		return errorAt(AlreadyDeclaredMethod, main.Pos()).withName("main")
	}
	scope.Define("main", &types.MethodType{
		Return:     types.Void,
		Params:     []types.Type{types.StringArray},
		ParamNames: []string{main.Args.Value},
	})
	return nil
}

// resolveType maps a type spelling to a type-domain value: a built-in
// singleton or an object type over a registered class.
func (b *SymbolTableBuilder) resolveType(name string, pos lexer.Position) (types.Type, error) {
	if t, ok := types.Lookup(name); ok {
		return t, nil
	}
	if b.registry.Lookup(name) != nil {
		return types.NewObject(name), nil
	}
	return nil, errorAt(UndeclaredClass, pos).withName(name)
}
