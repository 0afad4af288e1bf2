// Package policy evaluates access-policy expressions against a caller's
// declared permissions and roles.
//
// An expression is decoded bundle data: a boolean literal, or an object with
// exactly one of the keys permission, role, permissions, roles, allOf, anyOf
// or not. Anything unrecognised evaluates to false.
package policy

// Caller is the identity an action is dispatched under.
type Caller struct {
	Permissions []string `json:"permissions,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

func (c Caller) hasPermission(p string) bool { return contains(c.Permissions, p) }
func (c Caller) hasRole(r string) bool       { return contains(c.Roles, r) }

// Allowed reports whether c may proceed under expr. A nil expression always
// allows.
func Allowed(expr any, c Caller) bool {
	if expr == nil {
		return true
	}
	return Evaluate(expr, c)
}

// Evaluate evaluates expr against c.
func Evaluate(expr any, c Caller) bool {
	switch e := expr.(type) {
	case bool:
		return e
	case map[string]any:
		if len(e) != 1 {
			return false
		}
		for op, arg := range e {
			return evalOp(op, arg, c)
		}
	}
	return false
}

func evalOp(op string, arg any, c Caller) bool {
	switch op {
	case "permission":
		s, ok := arg.(string)
		return ok && c.hasPermission(s)
	case "role":
		s, ok := arg.(string)
		return ok && c.hasRole(s)
	case "permissions":
		names, ok := stringList(arg)
		if !ok {
			return false
		}
		for _, n := range names {
			if !c.hasPermission(n) {
				return false
			}
		}
		return true
	case "roles":
		names, ok := stringList(arg)
		if !ok {
			return false
		}
		for _, n := range names {
			if c.hasRole(n) {
				return true
			}
		}
		return false
	case "allOf":
		list, ok := arg.([]any)
		if !ok {
			return false
		}
		for _, sub := range list {
			if !Evaluate(sub, c) {
				return false
			}
		}
		return true
	case "anyOf":
		list, ok := arg.([]any)
		if !ok {
			return false
		}
		for _, sub := range list {
			if Evaluate(sub, c) {
				return true
			}
		}
		return false
	case "not":
		if arg == nil {
			return false
		}
		return !Evaluate(arg, c)
	}
	return false
}

func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
