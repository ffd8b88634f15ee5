// Package locale turns symbolic outcomes into English or French text.
package locale

import (
	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{language.English, language.French}

// Presenter selects a language and renders messages in it.
type Presenter struct {
	catalog  *catalog.Builder
	matcher  language.Matcher
	fallback language.Tag
}

// New creates a presenter whose fallback language is defaultLang ("en" or
// "fr"); anything else falls back to English.
func New(defaultLang string) (*Presenter, error) {
	b, err := buildCatalog()
	if err != nil {
		return nil, err
	}
	fallback := language.English
	if defaultLang == models.LocaleFrench {
		fallback = language.French
	}
	return &Presenter{
		catalog:  b,
		matcher:  language.NewMatcher(supported),
		fallback: fallback,
	}, nil
}

// Negotiate picks a supported language from an Accept-Language header.
func (p *Presenter) Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return p.fallback
	}
	_, idx, conf := p.matcher.Match(tags...)
	if conf == language.No {
		return p.fallback
	}
	return supported[idx]
}

// Code returns the two-letter code of a supported tag, as used for
// organization details.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

func (p *Presenter) sprintf(tag language.Tag, key string, args ...interface{}) string {
	return message.NewPrinter(tag, message.Catalog(p.catalog)).Sprintf(key, args...)
}

// Describe renders a success status or a denial.
func (p *Presenter) Describe(tag language.Tag, res outcome.Result) string {
	if res.OK {
		name := orgName(res.OrgNames, Code(tag))
		switch res.Status {
		case outcome.StatusLeftOrganization:
			return p.sprintf(tag, keyLeftOrganization, name)
		case outcome.StatusRemovedOrganization:
			return p.sprintf(tag, keyRemovedOrganization, name)
		case outcome.StatusUpdatedRole:
			return p.sprintf(tag, keyUpdatedRole)
		}
		return string(res.Status)
	}

	switch res.Reason {
	case outcome.ReasonNotAffiliated:
		return p.sprintf(tag, keyNotAffiliated)
	case outcome.ReasonUnknownUser:
		return p.sprintf(tag, keyUnknownUser)
	case outcome.ReasonUnknownOrganization:
		return p.sprintf(tag, keyUnknownOrganization)
	case outcome.ReasonUserNotInOrganization:
		return p.sprintf(tag, keyUserNotInOrganization)
	case outcome.ReasonSelfModification:
		return p.sprintf(tag, keySelfModification)
	case outcome.ReasonInsufficientPermission:
		return p.sprintf(tag, keyInsufficient)
	case outcome.ReasonCannotLowerSuperAdmin:
		return p.sprintf(tag, keyCannotLowerSuperAdmin)
	case outcome.ReasonPermissionDenied:
		if res.Detail == outcome.DetailVerifiedRequiresSuperAdmin {
			return p.sprintf(tag, keyVerifiedRemoval)
		}
		return p.sprintf(tag, keyNoStanding)
	}
	return p.sprintf(tag, keyGenericError)
}

// FailureMessage renders the generic retry message for op.
func (p *Presenter) FailureMessage(tag language.Tag, op outcome.Operation) string {
	switch op {
	case outcome.OpLeaveOrganization:
		return p.sprintf(tag, keyLeaveFailed)
	case outcome.OpRemoveOrganization:
		return p.sprintf(tag, keyRemoveFailed)
	case outcome.OpUpdateUserRole:
		return p.sprintf(tag, keyRoleFailed)
	}
	return p.sprintf(tag, keyGenericError)
}

func orgName(names map[string]string, code string) string {
	if name, ok := names[code]; ok {
		return name
	}
	return names[models.LocaleEnglish]
}
