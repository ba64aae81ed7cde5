package compiler

import (
	"strings"

	"github.com/aretw0/neoform/pkg/domain"
)

// vineflowerPrefix identifies the Vineflower decompiler, which rejects the
// TRACE log level the descriptors ask for.
const vineflowerPrefix = "org.vineflower:vineflower:"

// mergeMappingsType is the only step type whose output is a mappings file.
const mergeMappingsType = "mergeMappings"

// resolveContext is what placeholder resolution needs to know about the step.
type resolveContext struct {
	step      string
	stepType  string
	values    map[string]string
	version   string
	libraries string
	tool      string
}

// placeholder returns the name inside a {name} token.
func placeholder(token string) (string, bool) {
	if len(token) < 3 || token[0] != '{' || token[len(token)-1] != '}' {
		return "", false
	}
	return token[1 : len(token)-1], true
}

// resolveArgument turns one function argument template into an Argument.
func resolveArgument(token string, rc resolveContext) (domain.Argument, error) {
	name, ok := placeholder(token)
	if !ok {
		if strings.HasPrefix(rc.tool, vineflowerPrefix) {
			token = downgradeTrace(token)
		}
		return domain.Literal(token), nil
	}

	switch name {
	case "libraries":
		return domain.ClasspathArg{
			Input:    domain.FromTask(rc.libraries),
			ListFile: true,
			Prefix:   "-e=",
		}, nil
	case "version":
		return domain.Literal(rc.version), nil
	case "output":
		ext := "jar"
		if rc.stepType == mergeMappingsType {
			ext = "tsrg"
		}
		return domain.FileOutputArg{Slot: domain.SlotOutput, Extension: ext}, nil
	}

	if v, ok := rc.values[name]; ok {
		in, err := parseStepInput(rc.step, v)
		if err != nil {
			return nil, err
		}
		return domain.FileArg{Input: in, Sensitivity: domain.PathNone}, nil
	}
	return domain.FileArg{
		Input:       domain.FromTask(RetrievePrefix + name),
		Sensitivity: domain.PathNone,
	}, nil
}

// downgradeTrace rewrites a TRACE log level, bare or as an -opt=TRACE flag.
func downgradeTrace(token string) string {
	if token == "TRACE" {
		return "WARN"
	}
	if strings.HasSuffix(token, "=TRACE") {
		return strings.TrimSuffix(token, "TRACE") + "WARN"
	}
	return token
}

// parseStepInput resolves a step's own value: a literal, or {xOutput}
// meaning the output slot of task x.
func parseStepInput(step, value string) (domain.Input, error) {
	if !strings.HasPrefix(value, "{") && !strings.HasSuffix(value, "}") {
		return domain.Direct(value), nil
	}
	name, ok := placeholder(value)
	if ok && strings.HasSuffix(name, "Output") && len(name) > len("Output") {
		return domain.FromTask(strings.TrimSuffix(name, "Output")), nil
	}
	return nil, domain.Errorf(domain.ErrUnresolvableReference, step, "cannot resolve %q", value)
}
