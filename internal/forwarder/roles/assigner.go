// Package roles builds and submits the initiator rol for a freshly
// forwarded zaak.
package roles

import (
	"context"
	"fmt"

	"zaakbrug_backend/internal/forwarder/casetypes"
	"zaakbrug_backend/internal/submissions"
	"zaakbrug_backend/internal/zgw"
	"zaakbrug_backend/platform/logger"
	"zaakbrug_backend/platform/phone"
	"zaakbrug_backend/platform/sanitize"
)

// RolCreator is the slice of the ZGW client the assigner needs.
type RolCreator interface {
	CreateRol(ctx context.Context, params zgw.CreateRolParams) (zgw.Rol, error)
}

// Assigner creates exactly one aanvrager rol per zaak. The orchestrator
// only calls it when the zaak snapshot shows zero roles, which is what
// keeps role creation exactly-once across retries.
type Assigner struct {
	zaken RolCreator
	log   *logger.Logger
}

// New creates a role assigner.
func New(zaken RolCreator, log *logger.Logger) *Assigner {
	return &Assigner{zaken: zaken, log: log}
}

// EnsureRole creates the aanvrager rol for the submitter. Anonymous
// submissions carry no identity and get no rol.
func (a *Assigner) EnsureRole(ctx context.Context, zaak zgw.Zaak, sub submissions.Submission, props casetypes.Properties) error {
	params, skip, err := a.buildRolParams(zaak, sub, props)
	if err != nil {
		return err
	}
	if skip {
		a.log.Debug("no rol for anonymous submission", "submission_key", sub.Key)
		return nil
	}

	rol, err := a.zaken.CreateRol(ctx, params)
	if err != nil {
		return err
	}

	a.log.Info("rol created", "submission_key", sub.Key, "rol", rol.URL)
	return nil
}

func (a *Assigner) buildRolParams(zaak zgw.Zaak, sub submissions.Submission, props casetypes.Properties) (zgw.CreateRolParams, bool, error) {
	var betrokkeneType zgw.BetrokkeneType
	switch sub.SubmitterType {
	case submissions.SubmitterPerson:
		betrokkeneType = zgw.BetrokkeneNatuurlijkPersoon
	case submissions.SubmitterOrganisation:
		betrokkeneType = zgw.BetrokkeneNietNatuurlijkPersoon
	case submissions.SubmitterAnonymous:
		return zgw.CreateRolParams{}, true, nil
	default:
		return zgw.CreateRolParams{}, false, fmt.Errorf("unknown submitter type %q", sub.SubmitterType)
	}

	return zgw.CreateRolParams{
		Zaak:           zaak.URL,
		Roltype:        props.RoltypeAanvrager,
		BetrokkeneType: betrokkeneType,
		Identificatie:  sub.SubmitterID,
		Toelichting:    "Aanvrager",
		Contact:        extractContact(sub.Content),
	}, false, nil
}

// extractContact pulls best-effort contact details from the submission
// content. The contact is omitted entirely when no name is found: the
// Zaken API treats a present-but-empty contact object as invalid. Values
// come straight from user-filled forms, so they are stripped of markup
// before leaving the system.
func extractContact(content map[string]any) *zgw.ContactDetails {
	naam := sanitize.Text(findField(content, nameKeys))
	if naam == "" {
		return nil
	}

	return &zgw.ContactDetails{
		Naam:           naam,
		Emailadres:     sanitize.Text(findField(content, emailKeys)),
		Telefoonnummer: phone.NormalizeE164(findField(content, phoneKeys)),
	}
}
