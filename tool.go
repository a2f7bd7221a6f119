package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/FarhanAliRaza/Mardown-rs/internal/schema"
)

// Tool is the generic interface for agent tools. The type parameter T defines
// the input struct that arguments are decoded into after validation.
type Tool[T any] interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input T) (string, error)
}

// InvokeFunc runs a tool against already validated arguments.
type InvokeFunc func(ctx context.Context, args map[string]any) (string, error)

// ToolSpec describes one tool to the model and binds it to its implementation.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema schema.Schema

	invoke InvokeFunc
}

// NewToolSpec builds a ToolSpec with a pre-built schema and invoke function.
// Tools that don't use the generic Tool[T] interface register through it.
func NewToolSpec(name, description string, inputSchema schema.Schema, invoke InvokeFunc) ToolSpec {
	if inputSchema.Type == "" {
		inputSchema.Type = "object"
	}
	return ToolSpec{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
		invoke:      invoke,
	}
}

// ToolRegistry maps tool names to specs. It is concurrent-safe, and is
// read-only once the session has started.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]ToolSpec
	order []string // preserve registration order
}

// NewToolRegistry creates a new empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]ToolSpec),
	}
}

// Register adds spec to the registry.
func (r *ToolRegistry) Register(spec ToolSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: tool name is empty", ErrInvalidInput)
	}
	if spec.invoke == nil {
		return fmt.Errorf("%w: tool %q has no implementation", ErrInvalidInput, spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateToolName, spec.Name)
	}
	r.tools[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// RegisterTool registers a generic tool into the registry.
// The input type T is used to auto-generate a JSON Schema.
func RegisterTool[T any](r *ToolRegistry, tool Tool[T]) error {
	spec := NewToolSpec(tool.Name(), tool.Description(), schema.Generate[T](),
		func(ctx context.Context, args map[string]any) (string, error) {
			input, err := decodeArgs[T](args)
			if err != nil {
				return "", err
			}
			return tool.Execute(ctx, input)
		})
	return r.Register(spec)
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var input T
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return input, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return input, nil
}

// Lookup returns the ToolSpec registered under name.
func (r *ToolRegistry) Lookup(name string) (ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.tools[name]
	return spec, ok
}

// Dispatch validates call against the named tool's schema and invokes it.
// Every failure is folded into the returned result; Dispatch never errors.
func (r *ToolRegistry) Dispatch(ctx context.Context, call ToolCallRequest) ToolCallResult {
	result := ToolCallResult{CallID: call.ID, Name: call.Name}

	spec, ok := r.Lookup(call.Name)
	if !ok {
		return result.fail(fmt.Errorf("%w: %s", ErrUnknownTool, call.Name))
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := spec.InputSchema.Validate(args); err != nil {
		return result.fail(fmt.Errorf("%w: %s: %v", ErrInvalidArguments, call.Name, err))
	}

	output, err := invokeSafely(ctx, spec, args)
	if err != nil {
		return result.fail(err)
	}
	result.Output = output
	return result
}

func invokeSafely(ctx context.Context, spec ToolSpec, args map[string]any) (output string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s panicked: %v", ErrToolFailed, spec.Name, p)
		}
	}()
	return spec.invoke(ctx, args)
}

func (r ToolCallResult) fail(err error) ToolCallResult {
	r.Err = err
	r.Output = "Error: " + err.Error()
	return r
}

// Specs returns the registered specs in registration order.
func (r *ToolRegistry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name])
	}
	return specs
}

// Names returns the names of all registered tools in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
