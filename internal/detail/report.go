package detail

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ReportType is the category of a moderation report.
type ReportType string

const (
	ReportSpam          ReportType = "spam"
	ReportInappropriate ReportType = "inappropriate"
	ReportFake          ReportType = "fake"
	ReportOther         ReportType = "other"
)

// ReportTypes lists the categories in the order the form offers them.
var ReportTypes = []ReportType{ReportSpam, ReportInappropriate, ReportFake, ReportOther}

// ReportForm is the report dialog input.
type ReportForm struct {
	Type   string `validate:"required,oneof=spam inappropriate fake other"`
	Reason string `validate:"required,max=500"`
}

func (f ReportForm) check(v *validator.Validate) error {
	err := v.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Field() == "Type" {
			return ErrInvalidReportType
		}
	}
	for _, fe := range verrs {
		if fe.Field() == "Reason" && fe.Tag() == "max" {
			return ErrReasonTooLong
		}
	}
	return ErrReasonRequired
}
