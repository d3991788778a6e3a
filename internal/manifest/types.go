package manifest

// Manifest is the validated manifest document.
type Manifest struct {
	Release   string         `yaml:"release" json:"release"`
	Templates []TemplateSpec `yaml:"templates" json:"templates"`
}

// TemplateSpec describes one output template: its identity, the commands
// collaborators run against it, and the ordered blocks layered on top of the
// global files.
type TemplateSpec struct {
	ID       string   `yaml:"id" json:"id"`
	Size     string   `yaml:"size" json:"size"`
	Language string   `yaml:"language" json:"language"`
	Setup    string   `yaml:"setup" json:"setup"`
	Run      string   `yaml:"run" json:"run"`
	Blocks   []string `yaml:"blocks" json:"blocks"`
	Post     string   `yaml:"post,omitempty" json:"post,omitempty"`
}

// HasPost reports whether the template declares a post-generation command.
func (s TemplateSpec) HasPost() bool {
	return s.Post != ""
}

// Template returns the spec with the given id.
func (m *Manifest) Template(id string) (TemplateSpec, bool) {
	for _, t := range m.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return TemplateSpec{}, false
}

// IDs returns the template ids in manifest order.
func (m *Manifest) IDs() []string {
	ids := make([]string, len(m.Templates))
	for i, t := range m.Templates {
		ids[i] = t.ID
	}
	return ids
}

// Select returns the specs for ids in manifest order. With no ids it returns
// every template. Unknown ids are reported as a *ValidationError.
func (m *Manifest) Select(ids ...string) ([]TemplateSpec, error) {
	if len(ids) == 0 {
		return append([]TemplateSpec(nil), m.Templates...), nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var selected []TemplateSpec
	for _, t := range m.Templates {
		if wanted[t.ID] {
			selected = append(selected, t)
			delete(wanted, t.ID)
		}
	}

	if len(wanted) > 0 {
		verr := &ValidationError{}
		for _, id := range ids {
			if wanted[id] {
				verr.add(Issue{TemplateID: id, Field: "id", Message: "unknown template id"})
				delete(wanted, id)
			}
		}
		return nil, verr
	}
	return selected, nil
}
