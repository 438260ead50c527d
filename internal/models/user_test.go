package models

import (
	"encoding/json"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMergeCoercesPrefixes(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"comma string", " TAC, MEI ,,ETC ", []string{"TAC", "MEI", "ETC"}},
		{"list", []interface{}{" TAC ", "", nil, "MEI"}, []string{"TAC", "MEI"}},
		{"number", 42, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c UserConfig
			if err := c.Merge(map[string]interface{}{ConfigMotoristaPrefixos: tc.in}); err != nil {
				t.Fatalf("Merge: %v", err)
			}
			if !reflect.DeepEqual(c.MotoristaPrefixos, tc.want) {
				t.Fatalf("got %v, want %v", c.MotoristaPrefixos, tc.want)
			}
		})
	}
}

func TestMergeKeepsUnknownKeysAndValidatesBooleans(t *testing.T) {
	c := UserConfig{Extra: map[string]interface{}{"tema": "escuro"}}
	err := c.Merge(map[string]interface{}{
		ConfigAutoEnviarMotorista: true,
		"idioma":                  "pt",
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !c.AutoSendEnabled() || c.Extra["tema"] != "escuro" || c.Extra["idioma"] != "pt" {
		t.Fatalf("unexpected config %+v", c)
	}

	if err := c.Merge(map[string]interface{}{ConfigExigirDigitalizador: "sim"}); err == nil {
		t.Fatalf("expected error for non-boolean value")
	}
}

func TestConfigDefaults(t *testing.T) {
	var c UserConfig
	if !c.RequireScanner() {
		t.Fatalf("scanner is required by default")
	}
	if c.AutoSendEnabled() {
		t.Fatalf("auto send is off by default")
	}
	if !reflect.DeepEqual(c.Prefixes(), []string{"TAC", "MEI", "ETC"}) {
		t.Fatalf("unexpected default prefixes %v", c.Prefixes())
	}
	off := false
	c.ExigirDigitalizador = &off
	if c.RequireScanner() {
		t.Fatalf("explicit false must disable the scanner requirement")
	}
}

func TestConfigStorageShape(t *testing.T) {
	on := true
	user := User{
		Nome: "ana",
		Config: UserConfig{
			MotoristaPrefixos:   []string{"TAC"},
			AutoEnviarMotorista: &on,
			Extra:               map[string]interface{}{"tema": "escuro"},
		},
	}
	raw, err := bson.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var stored struct {
		Config bson.M `bson:"config"`
	}
	if err := bson.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg := stored.Config
	if cfg["tema"] != "escuro" || cfg[ConfigAutoEnviarMotorista] != true {
		t.Fatalf("config flattened incorrectly: %v", cfg)
	}

	var back User
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if !reflect.DeepEqual(back.Config.MotoristaPrefixos, []string{"TAC"}) || !back.Config.AutoSendEnabled() {
		t.Fatalf("typed fields lost: %+v", back.Config)
	}

	js, err := json.Marshal(back.Config)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var flat map[string]interface{}
	_ = json.Unmarshal(js, &flat)
	if flat["tema"] != "escuro" {
		t.Fatalf("json shape lost passthrough key: %s", js)
	}
}

func TestLegacyStringPrefixesDecode(t *testing.T) {
	raw, _ := bson.Marshal(bson.M{"nome": "x", "config": bson.M{ConfigMotoristaPrefixos: "TAC,ETC"}})
	var u User
	if err := bson.Unmarshal(raw, &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(u.Config.MotoristaPrefixos, []string{"TAC", "ETC"}) {
		t.Fatalf("got %v", u.Config.MotoristaPrefixos)
	}
}

func TestNewTables(t *testing.T) {
	tables := NewTables(20)
	if len(tables) != 20 || tables["1"] == nil || tables["20"] == nil {
		t.Fatalf("unexpected tables %v", tables)
	}
}
