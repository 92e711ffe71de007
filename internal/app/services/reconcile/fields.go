// internal/app/services/reconcile/fields.go
package reconcile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/htmlsanitize"
	"github.com/dalemusser/contributor/internal/app/system/normalize"
	"github.com/dalemusser/contributor/internal/domain/models"
)

// Canonical keys that are not resource fields.
const (
	keyFirstName      = "first_name"
	keyLastName       = "last_name"
	keyAdd            = "add"
	keyEditOrAdd      = "edit_or_add"
	keySubmittedBy    = "submitted_by"
	keySubmitterEmail = "submitter_email"
	keyOriginalID     = "original_resource_id"
)

// labels lists, per canonical key, the normalize.Key forms of the labels
// submitters use for it. The first entry is the canonical key itself; a
// label listed earlier wins over a later one.
var labels = map[string][]string{
	"name":            {"name", "contactname", "contactperson", "fullname"},
	keyFirstName:      {"firstname", "first"},
	keyLastName:       {"lastname", "last", "surname"},
	"email":           {"email", "emailaddress", "organizationemail", "orgemail", "contactemail"},
	"phone":           {"phone", "phonenumber", "organizationphone", "telephone"},
	"org_name":        {"orgname", "organizationname", "organization", "organisationname", "agency", "agencyname"},
	"address":         {"address", "streetaddress", "street"},
	"city":            {"city"},
	"state":           {"state"},
	"zip":             {"zip", "zipcode", "postalcode"},
	"website":         {"website", "websiteurl", "url", "web"},
	"hours":           {"hours", "hoursofoperation", "openhours"},
	"services":        {"services", "servicesoffered"},
	"requirements":    {"requirements", "eligibility", "eligibilityrequirements"},
	"category":        {"category", "categories", "resourcecategory"},
	"bus_line":        {"busline", "buslines", "busroute", "nearestbusline"},
	"description":     {"description", "about"},
	"additional_info": {"additionalinfo", "additionalinformation", "notes", "comments"},
	"latitude":        {"latitude", "lat", "lattitude"},
	"longitude":       {"longitude", "lng", "lon"},
	keyAdd:            {"add"},
	keyEditOrAdd:      {"editoradd", "addoredit", "requesttype", "submissiontype"},
	keySubmittedBy:    {"submittedby", "yourname", "submittername"},
	keySubmitterEmail: {"submitteremail", "youremail"},
	keyOriginalID:     {"originalresourceid", "resourceid"},
}

type alias struct {
	key  string
	rank int
}

// aliases is labels inverted: normalized label to canonical key and rank.
var aliases = func() map[string]alias {
	m := make(map[string]alias)
	for key, ls := range labels {
		for i, l := range ls {
			m[l] = alias{key: key, rank: i}
		}
	}
	return m
}()

// labelPick is the raw label currently chosen for a canonical key.
type labelPick struct {
	label string
	rank  int
	v     any
}

// beats reports whether p should replace cur: a non-blank value beats a
// blank one, then the lower rank wins, then the smaller raw label.
func (p labelPick) beats(cur labelPick) bool {
	if pb, cb := isBlank(p.v), isBlank(cur.v); pb != cb {
		return !pb
	}
	if p.rank != cur.rank {
		return p.rank < cur.rank
	}
	return p.label < cur.label
}

// canonicalize re-keys raw by canonical name. Unknown labels are dropped.
// Collisions are settled by labelPick.beats, so the outcome never depends on
// map order.
func canonicalize(raw map[string]any) map[string]any {
	picks := make(map[string]labelPick, len(raw))
	for label, v := range raw {
		a, ok := aliases[normalize.Key(label)]
		if !ok {
			continue
		}
		cand := labelPick{label: label, rank: a.rank, v: v}
		if cur, exists := picks[a.key]; exists && !cand.beats(cur) {
			continue
		}
		picks[a.key] = cand
	}

	out := make(map[string]any, len(picks))
	for key, p := range picks {
		out[key] = p.v
	}
	return out
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// plainText renders a scalar as trimmed plain text. ok is false for nil and
// blank values.
func plainText(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	s = htmlsanitize.PlainText(s)
	return s, s != ""
}

func textPtr(v any) *string {
	if s, ok := plainText(v); ok {
		return &s
	}
	return nil
}

// phone accepts a number or a string of digits with punctuation.
func phone(v any) (*int64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if t != float64(int64(t)) || t < 0 {
			return nil, apperr.Validation("phone must be a whole number")
		}
		n := int64(t)
		return &n, nil
	case int64:
		return &t, nil
	case int:
		n := int64(t)
		return &n, nil
	}
	s, ok := plainText(v)
	if !ok {
		return nil, nil
	}
	n, ok := normalize.Phone(s)
	if !ok {
		return nil, apperr.Validation("phone must contain digits")
	}
	return &n, nil
}

func coordinate(v any, name string) (*float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return &t, nil
	}
	s, ok := plainText(v)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperr.Validation(name + " must be a number")
	}
	return &f, nil
}

// parseAdd derives the add flag from an explicit boolean or a free-text
// "edit or add" answer.
func parseAdd(c map[string]any) (bool, error) {
	switch v := c[keyAdd].(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
	}

	answer, ok := plainText(c[keyEditOrAdd])
	if !ok {
		return false, apperr.Validation("add or editOrAdd is required")
	}
	words := strings.FieldsFunc(strings.ToLower(answer), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	// Edit answers often name what changed ("update address", "new phone"),
	// so edit words are checked first.
	if hasWord(words, editWords) {
		return false, nil
	}
	if hasWord(words, addWords) {
		return true, nil
	}
	return false, apperr.Validation(fmt.Sprintf("cannot tell whether %q is an edit or an addition", answer))
}

var (
	editWords = map[string]bool{"edit": true, "editing": true, "update": true, "updating": true, "change": true, "changing": true, "correct": true, "correction": true}
	addWords  = map[string]bool{"add": true, "adding": true, "new": true, "create": true}
)

func hasWord(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

// buildFields maps canonical values onto ResourceFields. A name is composed
// from first/last name when not given directly.
func buildFields(c map[string]any) (models.ResourceFields, error) {
	f := models.ResourceFields{
		Name:           textPtr(c["name"]),
		Email:          textPtr(c["email"]),
		OrgName:        textPtr(c["org_name"]),
		Address:        textPtr(c["address"]),
		City:           textPtr(c["city"]),
		State:          textPtr(c["state"]),
		Zip:            textPtr(c["zip"]),
		Website:        textPtr(c["website"]),
		Hours:          textPtr(c["hours"]),
		Services:       textPtr(c["services"]),
		Requirements:   textPtr(c["requirements"]),
		Category:       textPtr(c["category"]),
		BusLine:        textPtr(c["bus_line"]),
		Description:    textPtr(c["description"]),
		AdditionalInfo: textPtr(c["additional_info"]),
	}
	if f.Name == nil {
		first, _ := plainText(c[keyFirstName])
		last, _ := plainText(c[keyLastName])
		if full := normalize.Name(first + " " + last); full != "" {
			f.Name = &full
		}
	}
	if f.Email != nil {
		e := normalize.Email(*f.Email)
		f.Email = &e
	}
	if f.OrgName != nil {
		o := normalize.Name(*f.OrgName)
		f.OrgName = &o
	}

	var err error
	if f.Phone, err = phone(c["phone"]); err != nil {
		return models.ResourceFields{}, err
	}
	if f.Latitude, err = coordinate(c["latitude"], "latitude"); err != nil {
		return models.ResourceFields{}, err
	}
	if f.Longitude, err = coordinate(c["longitude"], "longitude"); err != nil {
		return models.ResourceFields{}, err
	}
	return f, nil
}

// sanitize strips markup from every text field in place and drops fields
// that end up empty.
func sanitize(f *models.ResourceFields) {
	for _, p := range []**string{
		&f.Name, &f.Email, &f.OrgName, &f.Address, &f.City, &f.State, &f.Zip,
		&f.Website, &f.Hours, &f.Services, &f.Requirements, &f.Category,
		&f.BusLine, &f.Description, &f.AdditionalInfo,
	} {
		if *p == nil {
			continue
		}
		s := htmlsanitize.PlainText(**p)
		if s == "" {
			*p = nil
			continue
		}
		*p = &s
	}
}
