package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User config keys with typed handling.
const (
	ConfigMotoristaPrefixos   = "motorista_prefixos_correio"
	ConfigExigirDigitalizador = "exigir_digitalizador_motorista"
	ConfigAutoEnviarMotorista = "auto_enviar_motorista_apos_import"
	RoleUser                  = "user"
)

// DefaultMotoristaPrefixes applies when the user configured none.
var DefaultMotoristaPrefixes = []string{"TAC", "MEI", "ETC"}

type User struct {
	ID        primitive.ObjectID                `bson:"_id,omitempty"`
	Nome      string                            `bson:"nome"`
	NomeBase  string                            `bson:"nome_base"`
	SenhaHash string                            `bson:"senha_hash"`
	Role      string                            `bson:"role"`
	Foto      *string                           `bson:"foto,omitempty"`
	Config    UserConfig                        `bson:"config"`
	Tabelas   map[string]map[string]interface{} `bson:"tabelas"`
}

// TableIDs returns the table keys "1".."max" every account owns.
func TableIDs(max int) []string {
	ids := make([]string, 0, max)
	for i := 1; i <= max; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	return ids
}

// NewTables returns an empty config object per table id.
func NewTables(max int) map[string]map[string]interface{} {
	t := make(map[string]map[string]interface{}, max)
	for _, id := range TableIDs(max) {
		t[id] = map[string]interface{}{}
	}
	return t
}

// UserConfig is the per-user settings record. Keys without a typed field
// are kept in Extra and round-trip unchanged.
type UserConfig struct {
	MotoristaPrefixos   []string
	ExigirDigitalizador *bool
	AutoEnviarMotorista *bool
	Extra               map[string]interface{}
}

// Prefixes returns the configured carrier prefixes or the defaults.
func (c UserConfig) Prefixes() []string {
	if len(c.MotoristaPrefixos) == 0 {
		return append([]string(nil), DefaultMotoristaPrefixes...)
	}
	return c.MotoristaPrefixos
}

// RequireScanner defaults to true.
func (c UserConfig) RequireScanner() bool {
	return c.ExigirDigitalizador == nil || *c.ExigirDigitalizador
}

func (c UserConfig) AutoSendEnabled() bool {
	return c.AutoEnviarMotorista != nil && *c.AutoEnviarMotorista
}

// ToMap flattens the config into its stored/JSON shape.
func (c UserConfig) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(c.Extra)+3)
	for k, v := range c.Extra {
		m[k] = v
	}
	if c.MotoristaPrefixos != nil {
		m[ConfigMotoristaPrefixos] = c.MotoristaPrefixos
	}
	if c.ExigirDigitalizador != nil {
		m[ConfigExigirDigitalizador] = *c.ExigirDigitalizador
	}
	if c.AutoEnviarMotorista != nil {
		m[ConfigAutoEnviarMotorista] = *c.AutoEnviarMotorista
	}
	return m
}

// Merge applies patch on top of c. The prefix list accepts a comma
// separated string or a list; anything else clears it. Boolean keys must
// be booleans or null.
func (c *UserConfig) Merge(patch map[string]interface{}) error {
	for k, v := range patch {
		switch k {
		case ConfigMotoristaPrefixos:
			c.MotoristaPrefixos = CoercePrefixes(v)
		case ConfigExigirDigitalizador, ConfigAutoEnviarMotorista:
			b, err := coerceBool(k, v)
			if err != nil {
				return err
			}
			if k == ConfigExigirDigitalizador {
				c.ExigirDigitalizador = b
			} else {
				c.AutoEnviarMotorista = b
			}
		default:
			if c.Extra == nil {
				c.Extra = map[string]interface{}{}
			}
			c.Extra[k] = v
		}
	}
	return nil
}

// CoercePrefixes normalizes a prefix setting into a trimmed list.
func CoercePrefixes(v interface{}) []string {
	var items []interface{}
	switch x := v.(type) {
	case string:
		out := []string{}
		for _, p := range strings.Split(x, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []string:
		for _, p := range x {
			items = append(items, p)
		}
	case []interface{}:
		items = x
	case primitive.A:
		items = x
	default:
		return []string{}
	}
	out := []string{}
	for _, p := range items {
		if p == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func coerceBool(key string, v interface{}) (*bool, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &x, nil
	default:
		return nil, fmt.Errorf("%s deve ser verdadeiro ou falso", key)
	}
}

// configFromMap is lenient: stored values of the wrong type fall back to
// the defaults instead of failing the read.
func configFromMap(m map[string]interface{}) UserConfig {
	c := UserConfig{}
	for k, v := range m {
		switch k {
		case ConfigMotoristaPrefixos:
			c.MotoristaPrefixos = CoercePrefixes(v)
		case ConfigExigirDigitalizador:
			if b, ok := v.(bool); ok {
				c.ExigirDigitalizador = &b
			}
		case ConfigAutoEnviarMotorista:
			if b, ok := v.(bool); ok {
				c.AutoEnviarMotorista = &b
			}
		default:
			if c.Extra == nil {
				c.Extra = map[string]interface{}{}
			}
			c.Extra[k] = v
		}
	}
	return c
}

func (c UserConfig) MarshalBSON() ([]byte, error) {
	return bson.Marshal(c.ToMap())
}

func (c *UserConfig) UnmarshalBSON(data []byte) error {
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = configFromMap(m)
	return nil
}

func (c UserConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

func (c *UserConfig) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = configFromMap(m)
	return nil
}
