package dictionary

import (
	"fmt"
	"unicode/utf8"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// AddSynonymInput holds the parameters for adding a synonym. A nil Group
// starts a new synonym group.
type AddSynonymInput struct {
	Radical string
	Synonym string
	Group   *int
}

// Validate normalises the words and collects all errors.
func (i *AddSynonymInput) Validate(maxLen int) error {
	var errs []domain.FieldError

	i.Radical = domain.NormalizeWord(i.Radical)
	i.Synonym = domain.NormalizeWord(i.Synonym)

	errs = appendWordErrors(errs, "radical", i.Radical, maxLen)
	errs = appendWordErrors(errs, "synonym", i.Synonym, maxLen)
	if i.Group != nil && *i.Group < 0 {
		errs = append(errs, domain.FieldError{Field: "group", Message: "must be >= 0"})
	}
	if len(errs) == 0 && i.Radical == i.Synonym {
		errs = append(errs, domain.FieldError{Field: "synonym", Message: "must differ from the radical"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// group returns the target group id, domain.NewGroup when unset.
func (i *AddSynonymInput) group() domain.GroupID {
	if i.Group == nil {
		return domain.NewGroup
	}
	return domain.GroupID(*i.Group)
}

// RemoveSynonymInput holds the parameters for removing a synonym.
type RemoveSynonymInput struct {
	Radical string
	Synonym string
	Group   int
}

// Validate normalises the words and collects all errors.
func (i *RemoveSynonymInput) Validate(maxLen int) error {
	var errs []domain.FieldError

	i.Radical = domain.NormalizeWord(i.Radical)
	i.Synonym = domain.NormalizeWord(i.Synonym)

	errs = appendWordErrors(errs, "radical", i.Radical, maxLen)
	errs = appendWordErrors(errs, "synonym", i.Synonym, maxLen)
	if i.Group < 0 {
		errs = append(errs, domain.FieldError{Field: "group", Message: "must be >= 0"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// normalizeWord normalises a single word argument and validates it.
func normalizeWord(field, word string, maxLen int) (string, error) {
	word = domain.NormalizeWord(word)
	if errs := appendWordErrors(nil, field, word, maxLen); len(errs) > 0 {
		return "", domain.NewValidationErrors(errs)
	}
	return word, nil
}

func validatePosition(pos int) error {
	if pos < 0 {
		return domain.NewValidationError("position", "must be >= 0")
	}
	return nil
}

func appendWordErrors(errs []domain.FieldError, field, word string, maxLen int) []domain.FieldError {
	switch {
	case word == "":
		return append(errs, domain.FieldError{Field: field, Message: "required"})
	case domain.ContainsSpace(word):
		return append(errs, domain.FieldError{Field: field, Message: "must be a single word"})
	case maxLen > 0 && utf8.RuneCountInString(word) > maxLen:
		return append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf("too long (max %d)", maxLen)})
	}
	return errs
}
