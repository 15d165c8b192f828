// Package recipe 혼합 제품 레시피와 원재료 분해 계산.
package recipe

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRecipe errors.Is 용 센티널
var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe 한 배치(batch_size)를 만드는 데 드는 원재료 양
type Recipe struct {
	BatchSize float64            `yaml:"batch_size" json:"batchSize"`
	Materials map[string]float64 `yaml:"materials" json:"materials"`
}

// InvalidRecipeError 등록 단계에서 거부된 레시피
type InvalidRecipeError struct {
	Product string
	Reason  string
}

func (e *InvalidRecipeError) Error() string {
	return fmt.Sprintf("invalid recipe %q: %s", e.Product, e.Reason)
}

func (e *InvalidRecipeError) Is(target error) bool {
	return target == ErrInvalidRecipe
}

// Validate 배치 크기와 원재료 양 검사
func (r Recipe) Validate(product string) error {
	if strings.TrimSpace(product) == "" {
		return &InvalidRecipeError{Product: product, Reason: "empty product name"}
	}
	if math.IsNaN(r.BatchSize) || math.IsInf(r.BatchSize, 0) || r.BatchSize <= 0 {
		return &InvalidRecipeError{Product: product, Reason: fmt.Sprintf("batch_size must be positive, got %v", r.BatchSize)}
	}
	for name, qty := range r.Materials {
		if strings.TrimSpace(name) == "" {
			return &InvalidRecipeError{Product: product, Reason: "empty material name"}
		}
		if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
			return &InvalidRecipeError{Product: product, Reason: fmt.Sprintf("material %q has invalid quantity %v", name, qty)}
		}
	}
	return nil
}

// Catalog 제품명 -> 레시피. 구성이 끝난 뒤에는 읽기 전용으로 공유한다.
type Catalog map[string]Recipe

// NewCatalog 검증을 거쳐 카탈로그 생성
func NewCatalog(recipes map[string]Recipe) (Catalog, error) {
	c := make(Catalog, len(recipes))
	for name, r := range recipes {
		if err := c.Register(name, r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register 레시피 등록. batch_size <= 0 은 InvalidRecipeError.
// 비어 있는(nil) 카탈로그에도 바로 쓸 수 있다.
func (c *Catalog) Register(product string, r Recipe) error {
	if err := r.Validate(product); err != nil {
		return err
	}
	if *c == nil {
		*c = make(Catalog)
	}
	materials := make(map[string]float64, len(r.Materials))
	for name, qty := range r.Materials {
		materials[strings.TrimSpace(name)] += qty
	}
	(*c)[strings.TrimSpace(product)] = Recipe{BatchSize: r.BatchSize, Materials: materials}
	return nil
}

// Lookup 제품 레시피 조회
func (c Catalog) Lookup(product string) (Recipe, bool) {
	r, ok := c[product]
	return r, ok
}

// Names 등록된 제품명 (정렬)
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type catalogFile struct {
	Recipes map[string]Recipe `yaml:"recipes"`
}

// ParseCatalog YAML 문서에서 카탈로그 생성
//
//	recipes:
//	  MixA:
//	    batch_size: 10
//	    materials: {Ingr1: 3, Ingr2: 7}
func ParseCatalog(data []byte) (Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse recipe catalog: %w", err)
	}
	return NewCatalog(f.Recipes)
}

// LoadCatalog 파일에서 카탈로그 로드. 파일이 없으면 빈 카탈로그.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Catalog{}, nil
		}
		return nil, fmt.Errorf("failed to read recipe catalog: %w", err)
	}
	return ParseCatalog(data)
}
