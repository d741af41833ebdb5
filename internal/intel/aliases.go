package intel

import (
	"strings"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// aliases maps the near-miss keys models tend to emit onto canonical fields.
// Keys are compared after lowercasing and removing '_', '-' and spaces.
var aliases = map[string]models.Field{
	"phonenumbers":              models.FieldPhoneNumbers,
	"phonenumber":               models.FieldPhoneNumbers,
	"phones":                    models.FieldPhoneNumbers,
	"phone":                     models.FieldPhoneNumbers,
	"mobile":                    models.FieldPhoneNumbers,
	"mobilenumbers":             models.FieldPhoneNumbers,
	"contactnumbers":            models.FieldPhoneNumbers,
	"upiids":                    models.FieldUPIIDs,
	"upiid":                     models.FieldUPIIDs,
	"upi":                       models.FieldUPIIDs,
	"upihandles":                models.FieldUPIIDs,
	"vpa":                       models.FieldUPIIDs,
	"paymenthandles":            models.FieldUPIIDs,
	"paymentids":                models.FieldUPIIDs,
	"bankaccounts":              models.FieldBankAccounts,
	"bankaccount":               models.FieldBankAccounts,
	"accountnumbers":            models.FieldBankAccounts,
	"bankaccountnumbers":        models.FieldBankAccounts,
	"accounts":                  models.FieldBankAccounts,
	"ifsccodes":                 models.FieldIFSCCodes,
	"ifsccode":                  models.FieldIFSCCodes,
	"ifsc":                      models.FieldIFSCCodes,
	"routingcodes":              models.FieldIFSCCodes,
	"branchcodes":               models.FieldIFSCCodes,
	"phishinglinks":             models.FieldPhishingLinks,
	"links":                     models.FieldPhishingLinks,
	"urls":                      models.FieldPhishingLinks,
	"suspiciouslinks":           models.FieldPhishingLinks,
	"websites":                  models.FieldPhishingLinks,
	"emailaddresses":            models.FieldEmailAddresses,
	"emails":                    models.FieldEmailAddresses,
	"email":                     models.FieldEmailAddresses,
	"emailids":                  models.FieldEmailAddresses,
	"impersonatedorganizations": models.FieldOrganizations,
	"impersonatedorganisations": models.FieldOrganizations,
	"organizations":             models.FieldOrganizations,
	"organisations":             models.FieldOrganizations,
	"orgs":                      models.FieldOrganizations,
	"companies":                 models.FieldOrganizations,
	"banks":                     models.FieldOrganizations,
	"suspiciouskeywords":        models.FieldSuspiciousKeywords,
	"keywords":                  models.FieldSuspiciousKeywords,
}

// FieldForKey resolves a loosely named key to its canonical field.
func FieldForKey(key string) (models.Field, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
	f, ok := aliases[k]
	return f, ok
}

// FromLoose converts an untrusted decoded JSON object into an extraction result.
// Unknown keys and non-string values are ignored; a bare string is accepted as a single value.
func FromLoose(raw map[string]any) models.Intelligence {
	var out models.Intelligence
	for key, value := range raw {
		f, ok := FieldForKey(key)
		if !ok {
			continue
		}
		target := out.Values(f)
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				*target = append(*target, v)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					*target = append(*target, s)
				}
			}
		case []string:
			for _, s := range v {
				if strings.TrimSpace(s) != "" {
					*target = append(*target, s)
				}
			}
		}
	}
	return out
}
