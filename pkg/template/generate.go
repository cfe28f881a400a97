package template

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/devmock/devmock/internal/id"
)

// ErrTemplateNotFound is returned when Generate is asked for a template
// name that is not registered.
var ErrTemplateNotFound = errors.New("template not found")

func init() {
	faker.SetRandomSource(rand.NewSource(time.Now().UnixNano()))
}

// generators maps template names to their payload constructors.
var generators = map[string]func() map[string]any{
	"user":    generateUser,
	"product": generateProduct,
	"article": generateArticle,
	"list":    generateList,
	"error":   generateError,
}

// Generate produces synthetic data for the named template. A count of one
// or less yields a single value; larger counts yield a slice of count
// independently generated values.
func Generate(name string, count int) (any, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if count <= 1 {
		return gen(), nil
	}
	items := make([]any, count)
	for i := range items {
		items[i] = gen()
	}
	return items, nil
}

// Names returns the registered template names in sorted order.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func generateUser() map[string]any {
	var person struct {
		FirstName string `faker:"first_name"`
		LastName  string `faker:"last_name"`
		Email     string `faker:"email"`
		Username  string `faker:"username"`
		Phone     string `faker:"phone_number"`
	}
	_ = faker.FakeData(&person)
	return map[string]any{
		"id":        uuid.NewString(),
		"firstName": person.FirstName,
		"lastName":  person.LastName,
		"name":      person.FirstName + " " + person.LastName,
		"email":     person.Email,
		"username":  person.Username,
		"phone":     person.Phone,
		"active":    rand.Intn(4) != 0,
		"createdAt": pastTime().Format(time.RFC3339),
	}
}

func generateProduct() map[string]any {
	var p struct {
		Adjective   string  `faker:"word"`
		Noun        string  `faker:"word"`
		Description string  `faker:"sentence"`
		Price       float64 `faker:"amount"`
		Currency    string  `faker:"currency"`
	}
	_ = faker.FakeData(&p)
	title := cases.Title(language.English)
	return map[string]any{
		"id":          uuid.NewString(),
		"name":        title.String(p.Adjective + " " + p.Noun),
		"description": strings.TrimSpace(p.Description),
		"sku":         "SKU-" + strings.ToUpper(id.Short()[:8]),
		"price":       math.Round(p.Price*100) / 100,
		"currency":    p.Currency,
		"inStock":     rand.Intn(5) != 0,
		"quantity":    rand.Intn(500),
		"createdAt":   pastTime().Format(time.RFC3339),
	}
}

func generateArticle() map[string]any {
	var a struct {
		Title  string `faker:"sentence"`
		Author string `faker:"name"`
		Body   string `faker:"paragraph"`
		TagOne string `faker:"word"`
		TagTwo string `faker:"word"`
	}
	_ = faker.FakeData(&a)
	title := cases.Title(language.English)
	return map[string]any{
		"id":          uuid.NewString(),
		"title":       title.String(strings.TrimSuffix(strings.TrimSpace(a.Title), ".")),
		"author":      a.Author,
		"body":        strings.TrimSpace(a.Body),
		"tags":        []any{a.TagOne, a.TagTwo},
		"likes":       rand.Intn(1000),
		"publishedAt": pastTime().Format(time.RFC3339),
	}
}

func generateList() map[string]any {
	n := rand.Intn(5) + 3
	items := make([]any, n)
	for i := range items {
		var it struct {
			Name string `faker:"word"`
		}
		_ = faker.FakeData(&it)
		items[i] = map[string]any{
			"id":    i + 1,
			"name":  it.Name,
			"value": rand.Intn(1000),
		}
	}
	return map[string]any{
		"items":    items,
		"total":    n,
		"page":     1,
		"pageSize": n,
	}
}

// errorKinds pairs error codes with their conventional HTTP status.
var errorKinds = []struct {
	code   string
	status int
}{
	{"BAD_REQUEST", 400},
	{"UNAUTHORIZED", 401},
	{"FORBIDDEN", 403},
	{"NOT_FOUND", 404},
	{"CONFLICT", 409},
	{"INTERNAL_ERROR", 500},
}

func generateError() map[string]any {
	var e struct {
		Message string `faker:"sentence"`
	}
	_ = faker.FakeData(&e)
	kind := errorKinds[rand.Intn(len(errorKinds))]
	return map[string]any{
		"error":     kind.code,
		"message":   strings.TrimSpace(e.Message),
		"status":    kind.status,
		"requestId": id.Short(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// pastTime returns a random instant within roughly the last year.
func pastTime() time.Time {
	return time.Now().UTC().Add(-time.Duration(rand.Intn(365*24)) * time.Hour)
}
