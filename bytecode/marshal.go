package bytecode

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal converts a prototype tree into a JSON representation.
func Marshal(p *Prototype) ([]byte, error) {
	state, err := stateFromPrototype(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// Unmarshal converts a JSON representation into a prototype tree.
func Unmarshal(data []byte) (*Prototype, error) {
	var state protoState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return prototypeFromState(&state)
}

// MarshalCBOR converts a prototype tree into a canonical CBOR encoding.
func MarshalCBOR(p *Prototype) ([]byte, error) {
	state, err := stateFromPrototype(p)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(state)
}

// UnmarshalCBOR converts a CBOR encoding into a prototype tree.
func UnmarshalCBOR(data []byte) (*Prototype, error) {
	var state protoState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal cbor: %w", err)
	}
	return prototypeFromState(&state)
}

// Serialization types

type constantDef struct {
	Type   string   `json:"type" cbor:"1,keyasint"`
	Bool   bool     `json:"bool,omitempty" cbor:"2,keyasint,omitempty"`
	Number *float64 `json:"number,omitempty" cbor:"3,keyasint,omitempty"`
	String *string  `json:"string,omitempty" cbor:"4,keyasint,omitempty"`
}

type upvalueDef struct {
	InStack bool   `json:"in_stack" cbor:"1,keyasint"`
	Index   int    `json:"index" cbor:"2,keyasint"`
	Name    string `json:"name,omitempty" cbor:"3,keyasint,omitempty"`
}

type locVarDef struct {
	Name    string `json:"name" cbor:"1,keyasint"`
	StartPC int    `json:"start_pc" cbor:"2,keyasint"`
	EndPC   int    `json:"end_pc" cbor:"3,keyasint"`
}

type protoDef struct {
	Source          string        `json:"source,omitempty" cbor:"1,keyasint,omitempty"`
	LineDefined     int           `json:"line_defined" cbor:"2,keyasint"`
	LastLineDefined int           `json:"last_line_defined" cbor:"3,keyasint"`
	NumParams       int           `json:"num_params" cbor:"4,keyasint"`
	VarargFlag      uint8         `json:"vararg_flag" cbor:"5,keyasint"`
	MaxStackSize    int           `json:"max_stack_size" cbor:"6,keyasint"`
	Instructions    []uint32      `json:"instructions" cbor:"7,keyasint"`
	Constants       []constantDef `json:"constants" cbor:"8,keyasint"`
	ChildIndices    []int         `json:"child_indices,omitempty" cbor:"9,keyasint,omitempty"`
	Upvalues        []upvalueDef  `json:"upvalues,omitempty" cbor:"10,keyasint,omitempty"`
	UpvalueNames    int           `json:"upvalue_names,omitempty" cbor:"11,keyasint,omitempty"`
	LineInfo        []int         `json:"line_info,omitempty" cbor:"12,keyasint,omitempty"`
	LocVars         []locVarDef   `json:"loc_vars,omitempty" cbor:"13,keyasint,omitempty"`
}

type protoState struct {
	Protos []*protoDef `json:"protos" cbor:"1,keyasint"`
}

func stateFromPrototype(root *Prototype) (*protoState, error) {
	all := root.Flatten()
	index := make(map[*Prototype]int, len(all))
	for i, p := range all {
		index[p] = i
	}
	state := &protoState{Protos: make([]*protoDef, len(all))}
	for i, p := range all {
		def := &protoDef{
			Source:          p.source,
			LineDefined:     p.lineDefined,
			LastLineDefined: p.lastLineDefined,
			NumParams:       p.numParams,
			VarargFlag:      p.varargFlag,
			MaxStackSize:    p.maxStackSize,
			Instructions:    make([]uint32, len(p.code)),
			Constants:       make([]constantDef, len(p.constants)),
			UpvalueNames:    len(p.upvalueNames),
			LineInfo:        p.lineInfo,
		}
		for j, ins := range p.code {
			def.Instructions[j] = ins.Encode()
		}
		for j, c := range p.constants {
			cd, err := constantToDef(c)
			if err != nil {
				return nil, fmt.Errorf("constant %d: %w", j, err)
			}
			def.Constants[j] = cd
		}
		for _, child := range p.children {
			def.ChildIndices = append(def.ChildIndices, index[child])
		}
		for j, uv := range p.upvalues {
			def.Upvalues = append(def.Upvalues, upvalueDef{
				InStack: uv.InStack,
				Index:   uv.Index,
				Name:    p.UpvalueName(j),
			})
		}
		for _, lv := range p.locVars {
			def.LocVars = append(def.LocVars, locVarDef(lv))
		}
		state.Protos[i] = def
	}
	return state, nil
}

func constantToDef(c any) (constantDef, error) {
	switch v := c.(type) {
	case nil:
		return constantDef{Type: "nil"}, nil
	case bool:
		return constantDef{Type: "boolean", Bool: v}, nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			// JSON has no literal for these
			text := strconv.FormatFloat(v, 'g', -1, 64)
			return constantDef{Type: "number", String: &text}, nil
		}
		return constantDef{Type: "number", Number: &v}, nil
	case string:
		return constantDef{Type: "string", String: &v}, nil
	default:
		return constantDef{}, fmt.Errorf("unsupported constant type %T", c)
	}
}

func constantFromDef(def constantDef) (any, error) {
	switch def.Type {
	case "nil":
		return nil, nil
	case "boolean":
		return def.Bool, nil
	case "number":
		switch {
		case def.Number != nil:
			return *def.Number, nil
		case def.String != nil:
			f, err := strconv.ParseFloat(*def.String, 64)
			if err != nil || !(math.IsInf(f, 0) || math.IsNaN(f)) {
				return nil, fmt.Errorf("invalid non-finite number %q", *def.String)
			}
			return f, nil
		default:
			return 0.0, nil
		}
	case "string":
		if def.String == nil {
			return "", nil
		}
		return *def.String, nil
	default:
		return nil, fmt.Errorf("unknown constant type %q", def.Type)
	}
}

func prototypeFromState(state *protoState) (*Prototype, error) {
	if len(state.Protos) == 0 {
		return nil, fmt.Errorf("no prototypes in state")
	}
	built := make([]*Prototype, len(state.Protos))
	var build func(i int, depth int) (*Prototype, error)
	build = func(i int, depth int) (*Prototype, error) {
		if i < 0 || i >= len(state.Protos) || depth > len(state.Protos) {
			return nil, fmt.Errorf("invalid prototype index %d", i)
		}
		if built[i] != nil {
			return built[i], nil
		}
		def := state.Protos[i]
		params := PrototypeParams{
			Source:          def.Source,
			LineDefined:     def.LineDefined,
			LastLineDefined: def.LastLineDefined,
			NumParams:       def.NumParams,
			VarargFlag:      def.VarargFlag,
			MaxStackSize:    def.MaxStackSize,
			Code:            make([]Instruction, len(def.Instructions)),
			Constants:       make([]any, len(def.Constants)),
			LineInfo:        def.LineInfo,
		}
		for j, raw := range def.Instructions {
			ins, err := DecodeInstruction(raw)
			if err != nil {
				return nil, err
			}
			params.Code[j] = ins
		}
		for j, cd := range def.Constants {
			c, err := constantFromDef(cd)
			if err != nil {
				return nil, err
			}
			params.Constants[j] = c
		}
		for _, ci := range def.ChildIndices {
			child, err := build(ci, depth+1)
			if err != nil {
				return nil, err
			}
			params.Children = append(params.Children, child)
		}
		for j, uv := range def.Upvalues {
			params.Upvalues = append(params.Upvalues, UpvalueDesc{InStack: uv.InStack, Index: uv.Index})
			if j < def.UpvalueNames {
				params.UpvalueNames = append(params.UpvalueNames, uv.Name)
			}
		}
		for _, lv := range def.LocVars {
			params.LocVars = append(params.LocVars, LocVar(lv))
		}
		built[i] = NewPrototype(params)
		return built[i], nil
	}
	return build(0, 0)
}
