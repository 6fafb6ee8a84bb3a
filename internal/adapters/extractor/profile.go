package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed profile_schema.json
var profileSchemaJSON []byte

// Profile описывает селекторы для одного типа предложения. Селекторы
// статусных секций накладываются поверх общих.
type Profile struct {
	StatusCheckXPath string            `json:"status_check_xpath"`
	Common           map[string]string `json:"common"`
	Available        map[string]string `json:"available"`
	Rented           map[string]string `json:"rented"`
	Sold             map[string]string `json:"sold"`
	Essential        []string          `json:"essential"`
}

// ProfileSet - профили по типам предложения, содержимое файла профиля.
type ProfileSet map[string]Profile

var compiledProfileSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource("profile_schema.json", bytes.NewReader(profileSchemaJSON)); err != nil {
		panic(fmt.Sprintf("extractor: failed to add profile schema resource: %v", err))
	}
	schema, err := compiler.Compile("profile_schema.json")
	if err != nil {
		panic(fmt.Sprintf("extractor: failed to compile profile schema: %v", err))
	}
	compiledProfileSchema = schema
}

// LoadProfiles читает файл профиля, проверяет его по схеме и возвращает
// набор профилей по типам предложения.
func LoadProfiles(path string) (ProfileSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extractor: failed to read profile %s: %w", path, err)
	}
	return ParseProfiles(raw)
}

// ParseProfiles проверяет и разбирает содержимое файла профиля.
func ParseProfiles(raw []byte) (ProfileSet, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("extractor: profile is not valid JSON: %w", err)
	}
	if err := compiledProfileSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("extractor: profile failed schema validation: %w", err)
	}

	var set ProfileSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("extractor: failed to decode profile: %w", err)
	}

	for offering, profile := range set {
		if len(profile.Common) == 0 {
			return nil, fmt.Errorf("extractor: profile %q has no common selectors", offering)
		}
		if len(profile.Essential) == 0 {
			profile.Essential = []string{"price"}
			set[offering] = profile
		}
	}
	return set, nil
}
