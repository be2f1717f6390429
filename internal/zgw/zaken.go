package zgw

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Zaak is the cached snapshot of a zaak as returned by a create or get
// call. The authoritative state lives in the Zaken API; callers must not
// assume this view stays fresh across steps.
type Zaak struct {
	URL                    string   `json:"url"`
	Identificatie          string   `json:"identificatie"`
	Bronorganisatie        string   `json:"bronorganisatie"`
	Omschrijving           string   `json:"omschrijving"`
	Toelichting            string   `json:"toelichting"`
	Zaaktype               string   `json:"zaaktype"`
	Status                 string   `json:"status"`
	Rollen                 []string `json:"rollen"`
	Zaakinformatieobjecten []string `json:"zaakinformatieobjecten"`
	ProductenOfDiensten    []string `json:"productenOfDiensten"`
}

type zaakPage struct {
	Count   int    `json:"count"`
	Results []Zaak `json:"results"`
}

// CreateZaakParams are the inputs for CreateZaak. Identificatie is
// optional; when empty the Zaken API assigns one.
type CreateZaakParams struct {
	Identificatie       string
	Bronorganisatie     string
	Zaaktype            string
	Omschrijving        string
	Toelichting         string
	ProductenOfDiensten []string
}

// Status is a zaak status resource.
type Status struct {
	URL                string `json:"url"`
	Zaak               string `json:"zaak"`
	Statustype         string `json:"statustype"`
	DatumStatusGezet   string `json:"datumStatusGezet"`
	Statustoelichting  string `json:"statustoelichting"`
}

// Eigenschap is a typed property attached to a zaak.
type Eigenschap struct {
	URL        string `json:"url"`
	Zaak       string `json:"zaak"`
	Eigenschap string `json:"eigenschap"`
	Waarde     string `json:"waarde"`
}

// BetrokkeneType selects the natural/non-natural person branch of a rol.
type BetrokkeneType string

const (
	BetrokkeneNatuurlijkPersoon     BetrokkeneType = "natuurlijk_persoon"
	BetrokkeneNietNatuurlijkPersoon BetrokkeneType = "niet_natuurlijk_persoon"
)

// ContactDetails are best-effort contact details for a rol. A nil
// *ContactDetails is omitted from the request entirely: the Zaken API
// schema rejects a present-but-empty contactpersoonRol object.
type ContactDetails struct {
	Naam           string `json:"naam"`
	Emailadres     string `json:"emailadres,omitempty"`
	Telefoonnummer string `json:"telefoonnummer,omitempty"`
}

// CreateRolParams are the inputs for CreateRol.
type CreateRolParams struct {
	Zaak           string
	Roltype        string
	BetrokkeneType BetrokkeneType
	// Identificatie is the BSN for natural persons, the KvK/RSIN number
	// for non-natural persons.
	Identificatie string
	Toelichting   string
	Contact       *ContactDetails
}

// Rol is a rol resource linking an identity to a zaak.
type Rol struct {
	URL            string `json:"url"`
	Zaak           string `json:"zaak"`
	Roltype        string `json:"roltype"`
	BetrokkeneType string `json:"betrokkeneType"`
}

// GetZaak fetches a zaak snapshot by its resource URL.
func (c *Client) GetZaak(ctx context.Context, zaakURL string) (Zaak, error) {
	const op = "zaken.GetZaak"

	var zaak Zaak
	if err := c.doJSON(ctx, op, "GET", zaakURL, nil, &zaak); err != nil {
		return Zaak{}, err
	}
	return zaak, nil
}

// GetZaakByIdentification queries the zaak list filtered by identification.
// Zero results is the expected KindZaakNotFound signal; more than one is
// KindMultipleZakenFound, a fatal data-integrity error.
func (c *Client) GetZaakByIdentification(ctx context.Context, identificatie string) (Zaak, error) {
	const op = "zaken.GetZaakByIdentification"

	params := url.Values{}
	params.Set("identificatie", identificatie)
	reqURL := fmt.Sprintf("%s/zaken?%s", c.zakenBase, params.Encode())

	var page zaakPage
	if err := c.doJSON(ctx, op, "GET", reqURL, nil, &page); err != nil {
		return Zaak{}, err
	}

	switch {
	case page.Count == 0:
		return Zaak{}, NewError(KindZaakNotFound, op, "no zaak with identificatie "+identificatie)
	case page.Count > 1:
		return Zaak{}, NewError(KindMultipleZakenFound, op,
			fmt.Sprintf("%d zaken share identificatie %s", page.Count, identificatie))
	}
	return page.Results[0], nil
}

// CreateZaak creates a new zaak.
func (c *Client) CreateZaak(ctx context.Context, params CreateZaakParams) (Zaak, error) {
	const op = "zaken.CreateZaak"

	body := map[string]any{
		"bronorganisatie":             params.Bronorganisatie,
		"verantwoordelijkeOrganisatie": params.Bronorganisatie,
		"zaaktype":                    params.Zaaktype,
		"startdatum":                  time.Now().Format("2006-01-02"),
		"omschrijving":                params.Omschrijving,
		"toelichting":                 params.Toelichting,
	}
	if params.Identificatie != "" {
		body["identificatie"] = params.Identificatie
	}
	if len(params.ProductenOfDiensten) > 0 {
		body["productenOfDiensten"] = params.ProductenOfDiensten
	}

	var zaak Zaak
	if err := c.doJSON(ctx, op, "POST", c.zakenBase+"/zaken", body, &zaak); err != nil {
		return Zaak{}, err
	}
	return zaak, nil
}

// AddStatus sets a status on a zaak.
func (c *Client) AddStatus(ctx context.Context, zaakURL, statustype, toelichting string) (Status, error) {
	const op = "zaken.AddStatus"

	body := map[string]any{
		"zaak":              zaakURL,
		"statustype":        statustype,
		"datumStatusGezet":  time.Now().Format(time.RFC3339),
		"statustoelichting": toelichting,
	}

	var status Status
	if err := c.doJSON(ctx, op, "POST", c.zakenBase+"/statussen", body, &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// AddZaakProperty attaches a typed property value to a zaak.
func (c *Client) AddZaakProperty(ctx context.Context, zaakURL, eigenschap, waarde string) (Eigenschap, error) {
	const op = "zaken.AddZaakProperty"

	body := map[string]any{
		"zaak":       zaakURL,
		"eigenschap": eigenschap,
		"waarde":     waarde,
	}

	var prop Eigenschap
	if err := c.doJSON(ctx, op, "POST", zaakURL+"/zaakeigenschappen", body, &prop); err != nil {
		return Eigenschap{}, err
	}
	return prop, nil
}

// CreateRol creates a rol on a zaak.
func (c *Client) CreateRol(ctx context.Context, params CreateRolParams) (Rol, error) {
	const op = "zaken.CreateRol"

	identificatie := map[string]any{}
	switch params.BetrokkeneType {
	case BetrokkeneNatuurlijkPersoon:
		identificatie["inpBsn"] = params.Identificatie
	case BetrokkeneNietNatuurlijkPersoon:
		identificatie["annIdentificatie"] = params.Identificatie
	default:
		return Rol{}, NewError(KindConfiguration, op, "unknown betrokkene type "+string(params.BetrokkeneType))
	}

	body := map[string]any{
		"zaak":                     params.Zaak,
		"roltype":                  params.Roltype,
		"betrokkeneType":           string(params.BetrokkeneType),
		"roltoelichting":           params.Toelichting,
		"betrokkeneIdentificatie":  identificatie,
	}
	if params.Contact != nil {
		body["contactpersoonRol"] = params.Contact
	}

	var rol Rol
	if err := c.doJSON(ctx, op, "POST", c.zakenBase+"/rollen", body, &rol); err != nil {
		return Rol{}, err
	}
	return rol, nil
}
