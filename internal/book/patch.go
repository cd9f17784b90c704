package book

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Patch is a partial update: only the fields present in the request body
// are applied
type Patch struct {
	Name    *string
	Author  *string
	Content *string
}

// patchable maps the JSON member names accepted by a patch to their targets
func (p *Patch) patchable() map[string]**string {
	return map[string]**string{
		"name":    &p.Name,
		"author":  &p.Author,
		"content": &p.Content,
	}
}

// DecodePatch parses a merge-patch document. A member named "id" yields
// ErrPrimaryKeyPatch; a present member that is null or not a string yields
// ErrValidation. Unknown members are ignored.
func DecodePatch(data []byte) (Patch, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if members == nil {
		return Patch{}, fmt.Errorf("%w: body must be an object", ErrValidation)
	}
	if _, ok := members["id"]; ok {
		return Patch{}, ErrPrimaryKeyPatch
	}

	var p Patch
	for name, target := range p.patchable() {
		raw, ok := members[name]
		if !ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return Patch{}, &FieldError{Field: name, Tag: "required"}
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return Patch{}, &FieldError{Field: name, Tag: "string"}
		}
		*target = &value
	}
	return p, nil
}

// Fields returns the names of the members present in the patch
func (p Patch) Fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, "name")
	}
	if p.Author != nil {
		fields = append(fields, "author")
	}
	if p.Content != nil {
		fields = append(fields, "content")
	}
	return fields
}

// Apply merges the present fields into b and stamps the modifier
func (p Patch) Apply(b *Book, userID string) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Content != nil {
		b.Content = *p.Content
	}
	b.ModifierUserID = userID
}

// FieldError reports one rejected body member
type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q failed %q", ErrValidation, e.Field, e.Tag)
}

// Unwrap makes FieldError match ErrValidation
func (e *FieldError) Unwrap() error {
	return ErrValidation
}
