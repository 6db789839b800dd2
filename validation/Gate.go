package validation

import (
	"fmt"
	"time"

	"catalog-api/models"
)

// Mode selects which fields a Gate requires.
type Mode int

const (
	// Create requires every mandatory field.
	Create Mode = iota
	// Update checks only the fields present in the input.
	Update
)

func nameRule(field, label string) StringRule {
	return StringRule{Rule{
		Field: field,
		Tag:   "required,min=2,max=50,personname",
		Messages: map[string]string{
			"required":   label + " is required",
			"min":        label + " must be at least 2 characters long",
			"max":        label + " cannot exceed 50 characters",
			"personname": label + " can only contain letters and spaces",
		},
	}}
}

var (
	firstNameRule = nameRule("firstName", "First name")
	lastNameRule  = nameRule("lastName", "Last name")
	phoneRule     = StringRule{Rule{
		Field: "phone",
		Tag:   "required,bephone",
		Messages: map[string]string{
			"required": "Phone number is required",
			"bephone":  "Phone number must be in format: +32 XXX XX XX XX",
		},
	}}

	productNameRule = StringRule{Rule{
		Field: "name",
		Tag:   "required,min=2,max=100",
		Messages: map[string]string{
			"required": "Product name is required",
			"":         "Product name must be between 2 and 100 characters",
		},
	}}
	descriptionRule = StringRule{Rule{
		Field: "description",
		Tag:   "required,min=10,max=1000",
		Messages: map[string]string{
			"required": "Product description is required",
			"":         "Description must be between 10 and 1000 characters",
		},
	}}
	brandRule = StringRule{Rule{
		Field: "brand",
		Tag:   "required,max=50",
		Messages: map[string]string{
			"required": "Brand is required",
			"max":      "Brand cannot exceed 50 characters",
		},
	}}
	skuRule = StringRule{Rule{
		Field: "sku",
		Tag:   "required,sku",
		Messages: map[string]string{
			"required": "SKU is required",
			"sku":      "SKU must be in format: 3 letters + 4 numbers (e.g., ABC1234)",
		},
	}}
	priceRule = NumberRule{Rule{
		Field: "price",
		Tag:   "gt=0,lte=999999.99,maxdecimals=2",
		Messages: map[string]string{
			"required":    "Price is required",
			"":            "Price must be a positive number",
			"lte":         "Price cannot exceed 999,999.99",
			"maxdecimals": "Price can have at most 2 decimal places",
		},
	}}
	stockRule = NumberRule{Rule{
		Field: "stock",
		Tag:   "gte=0,wholenumber",
		Messages: map[string]string{
			"required": "Stock quantity is required",
			"":         "Stock must be a non-negative whole number",
		},
	}}
	weightRule = NumberRule{Rule{
		Field: "weight",
		Tag:   "gte=0.01,lte=1000",
		Messages: map[string]string{
			"required": "Weight is required",
			"":         "Weight must be between 0.01 and 1000 kg",
		},
	}}
	tagRule = StringRule{Rule{
		Tag:      "max=30",
		Messages: map[string]string{"": "Each tag cannot exceed 30 characters"},
	}}
)

// Gate runs every applicable field rule for an entity and turns the
// accepted input into a typed patch.
type Gate struct {
	now Clock
}

func NewGate(now Clock) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{now: now}
}

func has(fields map[string]any, key string) bool {
	_, ok := fields[key]
	return ok
}

// User validates a user body. In Update mode the password rules only run
// when a non-empty password is supplied.
func (g *Gate) User(fields map[string]any, mode Mode) (models.UserPatch, error) {
	var (
		p  models.UserPatch
		fs Failures
	)
	g.person(fields, mode, &p, &fs)

	if mode == Create || has(fields, "email") {
		email, f := Email(fields["email"])
		fs.add(f)
		p.Email = &email
	}
	if pw, _ := fields["password"].(string); mode == Create || pw != "" {
		password, f := Password("password", fields["password"])
		fs.add(f)
		p.Password = &password
	}
	if has(fields, "role") {
		role, f := OneOf("role", "Role", fields["role"], models.Roles)
		fs.add(f)
		p.Role = &role
	}
	if has(fields, "isActive") {
		active, ok := fields["isActive"].(bool)
		if !ok {
			fs.add(fail("isActive", "isActive must be true or false"))
		}
		p.IsActive = &active
	}
	return p, fs.err()
}

// Profile validates a self-service update. Only firstName, lastName, phone
// and dateOfBirth are copied; every other key is ignored.
func (g *Gate) Profile(fields map[string]any) (models.UserPatch, error) {
	var (
		p  models.UserPatch
		fs Failures
	)
	g.person(fields, Update, &p, &fs)
	return p, fs.err()
}

func (g *Gate) person(fields map[string]any, mode Mode, p *models.UserPatch, fs *Failures) {
	if mode == Create || has(fields, "firstName") {
		v, f := firstNameRule.Check(fields["firstName"])
		fs.add(f)
		p.FirstName = &v
	}
	if mode == Create || has(fields, "lastName") {
		v, f := lastNameRule.Check(fields["lastName"])
		fs.add(f)
		p.LastName = &v
	}
	if mode == Create || has(fields, "phone") {
		v, f := phoneRule.Check(fields["phone"])
		fs.add(f)
		p.Phone = &v
	}
	if mode == Create || has(fields, "dateOfBirth") {
		v, f := BirthDate(fields["dateOfBirth"], g.now())
		fs.add(f)
		p.DateOfBirth = &v
	}
}

// Product validates a product body. The discontinue/release ordering is
// checked when both dates are present and valid.
func (g *Gate) Product(fields map[string]any, mode Mode) (models.ProductPatch, error) {
	var (
		p  models.ProductPatch
		fs Failures
	)
	check := func(key string) bool { return mode == Create || has(fields, key) }

	if check("name") {
		v, f := productNameRule.Check(fields["name"])
		fs.add(f)
		p.Name = &v
	}
	if check("description") {
		v, f := descriptionRule.Check(fields["description"])
		fs.add(f)
		p.Description = &v
	}
	if check("price") {
		v, f := priceRule.Check(fields["price"])
		fs.add(f)
		p.Price = &v
	}
	if check("category") {
		if isBlank(fields["category"]) {
			fs.add(fail("category", "Category is required"))
		} else {
			v, f := OneOf("category", "Category", fields["category"], models.Categories)
			fs.add(f)
			p.Category = &v
		}
	}
	if check("brand") {
		v, f := brandRule.Check(fields["brand"])
		fs.add(f)
		p.Brand = &v
	}
	if check("stock") {
		v, f := stockRule.Check(fields["stock"])
		fs.add(f)
		stock := int(v)
		p.Stock = &stock
	}
	if check("sku") {
		v, f := skuRule.Check(fields["sku"])
		fs.add(f)
		p.SKU = &v
	}
	if check("weight") {
		v, f := weightRule.Check(fields["weight"])
		fs.add(f)
		p.Weight = &v
	}
	if check("dimensions") {
		p.Dimensions = dimensions(fields["dimensions"], &fs)
	}

	var releaseOK bool
	if check("releaseDate") {
		v, f := ReleaseDate(fields["releaseDate"], g.now())
		fs.add(f)
		releaseOK = !v.IsZero()
		p.ReleaseDate = &v
	}
	if raw := fields["discontinueDate"]; isBlank(raw) {
		p.ClearDiscontinueDate = mode == Update && has(fields, "discontinueDate")
	} else {
		v, f := DiscontinueDate(raw)
		fs.add(f)
		if f == nil && releaseOK {
			fs.add(CheckProductDates(*p.ReleaseDate, v))
		}
		p.DiscontinueDate = &v
	}

	if has(fields, "isActive") {
		active, ok := fields["isActive"].(bool)
		if !ok {
			fs.add(fail("isActive", "isActive must be true or false"))
		}
		p.IsActive = &active
	}
	if has(fields, "tags") {
		p.Tags = tags(fields["tags"], &fs)
	}
	return p, fs.err()
}

func dimensions(raw any, fs *Failures) *models.Dimensions {
	m, ok := raw.(map[string]any)
	if !ok {
		fs.add(fail("dimensions", "Dimensions are required"))
		return nil
	}
	var d models.Dimensions
	for _, dim := range []struct {
		key string
		dst *float64
	}{
		{"length", &d.Length},
		{"width", &d.Width},
		{"height", &d.Height},
	} {
		rule := NumberRule{Rule{
			Field:    "dimensions." + dim.key,
			Tag:      "gte=0.1",
			Messages: map[string]string{"": fmt.Sprintf("%s must be at least 0.1 cm", capitalize(dim.key))},
		}}
		n, f := rule.Check(m[dim.key])
		if f != nil {
			fs.add(f)
			continue
		}
		*dim.dst = n
	}
	return &d
}

func tags(raw any, fs *Failures) *[]string {
	list, ok := raw.([]any)
	if !ok && raw != nil {
		fs.add(fail("tags", "Tags must be a list of strings"))
		return nil
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			fs.add(fail(fmt.Sprintf("tags.%d", i), "Each tag must be a string"))
			continue
		}
		rule := tagRule
		rule.Field = fmt.Sprintf("tags.%d", i)
		s, f := rule.Check(s)
		if f != nil {
			fs.add(f)
			continue
		}
		out = append(out, s)
	}
	return &out
}
