package folio

import (
	"strings"
)

// Model identifies one content type. The set is closed: every value is
// declared below and registered in modelSpecs.
type Model string

const (
	ModelHero      Model = "hero"
	ModelProject   Model = "project"
	ModelSimulator Model = "simulator"
	ModelAbout     Model = "about"
	ModelSkill     Model = "skill"
	ModelResume    Model = "resume"
	ModelContact   Model = "contact"
	ModelTheme     Model = "theme"
	ModelSEO       Model = "seo"
)

type modelSpec struct {
	typeName string
	route    string
	newFn    func() Record
}

var modelOrder = []Model{
	ModelHero,
	ModelProject,
	ModelSimulator,
	ModelAbout,
	ModelSkill,
	ModelResume,
	ModelContact,
	ModelTheme,
	ModelSEO,
}

var modelSpecs = map[Model]modelSpec{
	ModelHero:      {typeName: "Hero", route: "hero", newFn: func() Record { return NewHero() }},
	ModelProject:   {typeName: "Project", route: "projects", newFn: func() Record { return NewProject() }},
	ModelSimulator: {typeName: "Simulator", route: "simulators", newFn: func() Record { return NewSimulator() }},
	ModelAbout:     {typeName: "About", route: "about", newFn: func() Record { return NewAbout() }},
	ModelSkill:     {typeName: "Skill", route: "skills", newFn: func() Record { return NewSkill() }},
	ModelResume:    {typeName: "Resume", route: "resume", newFn: func() Record { return &Resume{} }},
	ModelContact:   {typeName: "Contact", route: "contact", newFn: func() Record { return NewContact() }},
	ModelTheme:     {typeName: "Theme", route: "theme", newFn: func() Record { return NewTheme() }},
	ModelSEO:       {typeName: "SEO", route: "seo", newFn: func() Record { return &SEO{} }},
}

// Models returns every model in declaration order.
func Models() []Model {
	out := make([]Model, len(modelOrder))
	copy(out, modelOrder)
	return out
}

// ParseModel resolves a model by collection name, route segment or type
// name, ignoring case.
func ParseModel(name string) (Model, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", ErrInvalidModel
	}
	for _, m := range modelOrder {
		spec := modelSpecs[m]
		if key == string(m) || key == spec.route || key == strings.ToLower(spec.typeName) {
			return m, nil
		}
	}
	return "", ErrInvalidModel
}

// IsValid reports whether m is one of the declared models.
func (m Model) IsValid() bool {
	_, ok := modelSpecs[m]
	return ok
}

// Collection is the document store collection holding records of m.
func (m Model) Collection() string {
	return string(m)
}

// Route is the path segment under /api serving records of m.
func (m Model) Route() string {
	return modelSpecs[m].route
}

// TypeName is the display name of the model.
func (m Model) TypeName() string {
	return modelSpecs[m].typeName
}

// New returns an empty record of m with every default applied.
func (m Model) New() Record {
	spec, ok := modelSpecs[m]
	if !ok {
		return nil
	}
	return spec.newFn()
}
