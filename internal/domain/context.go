package domain

// ForwardingCredential encapsula el bearer token del caller. El valor crudo
// solo es accesible via AuthorizationHeader, pensado para la capa de
// transporte del tool bridge; nunca debe entrar en prompts ni logs.
type ForwardingCredential struct {
	raw string
}

// NewForwardingCredential construye la credencial a partir del token crudo
// (sin el prefijo "Bearer ").
func NewForwardingCredential(token string) ForwardingCredential {
	return ForwardingCredential{raw: token}
}

// AuthorizationHeader devuelve el valor listo para el header Authorization.
func (c ForwardingCredential) AuthorizationHeader() string {
	if c.raw == "" {
		return ""
	}
	return "Bearer " + c.raw
}

// IsZero indica si no hay credencial presente.
func (c ForwardingCredential) IsZero() bool {
	return c.raw == ""
}

// String implementa fmt.Stringer con el valor redactado, de modo que la
// credencial no pueda filtrarse por un log o un %v accidental.
func (c ForwardingCredential) String() string {
	return "[redacted]"
}

// RequestContext es el contexto efimero de un request autenticado. Vive solo
// en memoria durante el request y se pasa explicitamente por parametro.
type RequestContext struct {
	TenantID   string
	Credential ForwardingCredential
	RequestID  string
}
