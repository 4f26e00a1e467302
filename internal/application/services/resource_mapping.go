package services

import "github.com/zatekoja/notefhir/internal/domain/entities"

func newCondition(id string, code entities.CodeableConcept, subject entities.Reference, p *entities.ConditionParams) *entities.Condition {
	c := &entities.Condition{
		ResourceType: string(entities.ResourceKindCondition),
		ID:           id,
		Code:         code,
		Subject:      subject,
		Category:     entities.TextConcepts(p.Category),
		BodySite:     entities.TextConcepts(p.BodySite),
		RecordedDate: p.RecordedDate,
		Note:         notes(p.Note),
	}
	c.ClinicalStatus = optionalConcept(p.ClinicalStatus)
	c.VerificationStatus = optionalConcept(p.VerificationStatus)
	c.Severity = optionalConcept(p.Severity)

	c.OnsetDateTime = p.Onset.DateTime
	c.OnsetAge = p.Onset.Age
	c.OnsetPeriod = p.Onset.Period
	c.OnsetString = p.Onset.String

	c.AbatementDateTime = p.Abatement.DateTime
	c.AbatementAge = p.Abatement.Age
	c.AbatementPeriod = p.Abatement.Period
	c.AbatementString = p.Abatement.String

	for _, s := range p.Stage {
		c.Stage = append(c.Stage, entities.ConditionStage{Summary: entities.TextConcept(s)})
	}
	for _, e := range p.Evidence {
		c.Evidence = append(c.Evidence, entities.ConditionEvidence{
			Code: []entities.CodeableConcept{{Text: e}},
		})
	}
	return c
}

func newMedicationStatement(id string, code entities.CodeableConcept, subject entities.Reference, p *entities.MedicationStatementParams) *entities.MedicationStatement {
	m := &entities.MedicationStatement{
		ResourceType:              string(entities.ResourceKindMedicationStatement),
		ID:                        id,
		Status:                    p.Status,
		StatusReason:              entities.TextConcepts(p.StatusReason),
		Category:                  optionalConcept(p.Category),
		MedicationCodeableConcept: code,
		Subject:                   subject,
		EffectiveDateTime:         p.Effective.DateTime,
		EffectivePeriod:           p.Effective.Period,
		DateAsserted:              p.DateAsserted,
		ReasonCode:                entities.TextConcepts(p.ReasonCode),
		Note:                      notes(p.Note),
	}
	for _, d := range p.Dosage {
		m.Dosage = append(m.Dosage, entities.Dosage{Text: d})
	}
	return m
}

func newProcedure(id string, code entities.CodeableConcept, subject entities.Reference, p *entities.ProcedureParams) *entities.Procedure {
	return &entities.Procedure{
		ResourceType:      string(entities.ResourceKindProcedure),
		ID:                id,
		Status:            p.Status,
		StatusReason:      optionalConcept(p.StatusReason),
		Category:          optionalConcept(p.Category),
		Code:              code,
		Subject:           subject,
		PerformedDateTime: p.Performed.DateTime,
		PerformedPeriod:   p.Performed.Period,
		PerformedString:   p.Performed.String,
		PerformedAge:      p.Performed.Age,
		ReasonCode:        entities.TextConcepts(p.ReasonCode),
		BodySite:          entities.TextConcepts(p.BodySite),
		Outcome:           optionalConcept(p.Outcome),
		Complication:      entities.TextConcepts(p.Complication),
		FollowUp:          entities.TextConcepts(p.FollowUp),
		Note:              notes(p.Note),
	}
}

func optionalConcept(text string) *entities.CodeableConcept {
	if text == "" {
		return nil
	}
	return entities.TextConcept(text)
}

func notes(texts []string) []entities.Annotation {
	if len(texts) == 0 {
		return nil
	}
	out := make([]entities.Annotation, 0, len(texts))
	for _, t := range texts {
		out = append(out, entities.Annotation{Text: t})
	}
	return out
}
