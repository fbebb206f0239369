package formula

import (
	celgo "github.com/google/cel-go/cel"
)

type celProgram struct {
	program celgo.Program
	vars    []string
}

func compileCEL(source string, variables []string) (program, error) {
	decls := []celgo.EnvOption{
		celgo.Variable(SelfVar, celgo.DynType),
		celgo.Variable(IsSetVar, celgo.BoolType),
	}
	for _, name := range normalize(variables) {
		decls = append(decls, celgo.Variable(name, celgo.DynType))
	}
	env, err := celgo.NewEnv(decls...)
	if err != nil {
		return nil, err
	}
	parsed, iss := env.Parse(source)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	checked, iss := env.Check(parsed)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return celProgram{program: prg, vars: normalize(variables)}, nil
}

func (p celProgram) run(env map[string]any) (any, error) {
	activation := make(map[string]any, len(p.vars)+2)
	for _, name := range p.vars {
		activation[name] = env[name]
	}
	activation[SelfVar] = env[SelfVar]
	isSet, _ := env[IsSetVar].(bool)
	activation[IsSetVar] = isSet

	out, _, err := p.program.Eval(activation)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}
