// Package clinical provides the clinical domain vocabulary for keyword
// extraction. Importing the package registers the extractor.
package clinical

import "github.com/c360studio/catchfish/vocabulary"

// Domain is the registry name for this vocabulary.
const Domain = "clinical"

// terms is the clinical vocabulary set.
var terms = []string{
	"adherence", "adverse", "biomarker", "chronic", "clinical",
	"comorbidity", "contraindication", "diabetes", "diagnosis", "dosage",
	"dose", "efficacy", "glucose", "guideline", "hypertension", "insulin",
	"intervention", "lifestyle", "metformin", "monitoring", "onset",
	"outcome", "patient", "prognosis", "protocol", "referral", "regimen",
	"remission", "screening", "symptom", "therapy", "titration",
	"treatment", "trial",
}

// suffixes covers clinical and pharmacological morphology: conditions
// (-itis, -osis, -emia, -pathy) and drug classes (-formin, -statin, -pril,
// -sartan, -azole, -cillin, -mab).
var suffixes = []string{
	"itis", "osis", "emia", "pathy", "ectomy",
	"formin", "statin", "pril", "sartan", "azole", "cillin", "mab",
}

func init() {
	vocabulary.Register(vocabulary.New(vocabulary.Config{
		Domain:   Domain,
		Terms:    terms,
		Suffixes: suffixes,
	}))
}
