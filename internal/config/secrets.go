package config

// SecretPrefix marks a raw value that names a secret instead of holding it,
// e.g. "vault:secret/gateway#jwt_secret".
const SecretPrefix = "vault:"

// SecretResolver turns a reference (the part after SecretPrefix) into the
// secret value.  Resolve only consults it when one is supplied with
// WithSecretResolver; otherwise "vault:" values are used literally.
type SecretResolver interface {
	ResolveSecret(ref string) (string, error)
}
