package controller

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"

	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/model"
)

// validateInput trims the text fields in place and builds the report payload
// without its photo key.
func validateInput(in *model.ReportFormInput) (*model.ReportPayload, error) {
	if in.File == nil || in.File.Size == 0 {
		return nil, &ValidationError{Message: msgMissingFile}
	}

	in.City = strings.TrimSpace(in.City)
	in.Area = strings.TrimSpace(in.Area)
	in.Description = strings.TrimSpace(in.Description)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)

	if err := binding.Validator.ValidateStruct(in); err != nil {
		return nil, &ValidationError{Message: msgMissingRequired}
	}

	lat, err := parseCoordinate(in.Lat, 90)
	if err != nil {
		return nil, err
	}
	lng, err := parseCoordinate(in.Lng, 180)
	if err != nil {
		return nil, err
	}

	return &model.ReportPayload{
		City:         in.City,
		Area:         in.Area,
		Description:  in.Description,
		WasteType:    in.WasteType,
		Urgency:      in.Urgency,
		Lat:          lat,
		Lng:          lng,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Source:       model.SourceWeb,
	}, nil
}

// parseCoordinate returns nil for an empty value. Values outside [-limit, limit] are rejected.
func parseCoordinate(raw string, limit float64) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return nil, &ValidationError{Message: msgBadCoordinates}
	}
	return &v, nil
}
