package pricing

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultTableYAML is the built-in price table used when nothing else is configured.
//
//go:embed default_table.yaml
var DefaultTableYAML []byte

type tableDocument struct {
	PostcardUnitPrice  int                          `yaml:"postcard_unit_price"`
	InputAssistanceFee int                          `yaml:"input_assistance_fee"`
	DiscountRates      map[Discount]decimal.Decimal `yaml:"discount_rates"`
	DMCoupon           map[Discount]int             `yaml:"dm_coupon"`
	Finishes           map[Finish]finishDocument    `yaml:"finishes"`
	Plans              planDocument                 `yaml:"plans"`
	LeadDays           map[Plan]int                 `yaml:"lead_days"`
}

type finishDocument struct {
	Base         map[Grade]int  `yaml:"base"`
	StepSize     int            `yaml:"step_size"`
	FreeQuantity int            `yaml:"free_quantity"`
	Bands        []bandDocument `yaml:"bands"`
}

type bandDocument struct {
	// UpTo is omitted for the unbounded band.
	UpTo    *int `yaml:"up_to"`
	PerStep int  `yaml:"per_step"`
}

type planDocument struct {
	SelfFixedAdd     int              `yaml:"self_fixed_add"`
	AssistedFixedAdd int              `yaml:"assisted_fixed_add"`
	CuratedPerUnit   map[Discount]int `yaml:"curated_per_unit"`
	FullServiceExtra int              `yaml:"full_service_extra"`
}

// ParseTable decodes a YAML price table document and validates it.
func ParseTable(data []byte) (*Table, error) {
	// Unknown keys are errors: a misspelled key would otherwise price as zero.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc tableDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidTable)
		}
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidTable, err)
	}

	t := &Table{
		PostcardUnitPrice:  doc.PostcardUnitPrice,
		InputAssistanceFee: doc.InputAssistanceFee,
		DiscountRates:      doc.DiscountRates,
		DMCoupon:           doc.DMCoupon,
		Finishes:           make(map[Finish]FinishProfile, len(doc.Finishes)),
		Plans: PlanRules{
			SelfFixedAdd:     doc.Plans.SelfFixedAdd,
			AssistedFixedAdd: doc.Plans.AssistedFixedAdd,
			CuratedPerUnit:   doc.Plans.CuratedPerUnit,
			FullServiceExtra: doc.Plans.FullServiceExtra,
		},
		LeadDays: doc.LeadDays,
	}

	for finish, fd := range doc.Finishes {
		profile := FinishProfile{
			BaseByGrade:  fd.Base,
			StepSize:     fd.StepSize,
			FreeQuantity: fd.FreeQuantity,
			Bands:        make([]Band, 0, len(fd.Bands)),
		}
		for i, bd := range fd.Bands {
			b := Band{PerStep: bd.PerStep}
			if bd.UpTo != nil {
				if *bd.UpTo <= 0 {
					return nil, fmt.Errorf("%w: finish %q band %d: up_to must be > 0", ErrInvalidTable, finish, i)
				}
				b.UpTo = *bd.UpTo
			}
			profile.Bands = append(profile.Bands, b)
		}
		t.Finishes[finish] = profile
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTableFile reads and validates a price table from a YAML file.
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table %s: %w", path, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("load price table %s: %w", path, err)
	}
	return t, nil
}

// DefaultTable returns the built-in price table.
func DefaultTable() *Table {
	t, err := ParseTable(DefaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("pricing: built-in price table is invalid: %v", err))
	}
	return t
}
