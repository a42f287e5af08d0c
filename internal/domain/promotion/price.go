package promotion

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Price is a decimal amount. It is written to JSON as a bare number and to
// BSON as Decimal128.
type Price struct {
	decimal.Decimal
}

func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}

	return Price{Decimal: d}, nil
}

func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

// Decimal128 converts p without rounding. ok is false when p does not fit.
func (p Price) Decimal128() (d primitive.Decimal128, ok bool) {
	return primitive.ParseDecimal128FromBigInt(p.Coefficient(), int(p.Exponent()))
}

func (p Price) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d, ok := p.Decimal128()
	if !ok {
		return 0, nil, fmt.Errorf("price %s does not fit in decimal128", p.Decimal.String())
	}

	return bson.MarshalValue(d)
}

func (p *Price) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Decimal128:
		d, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return err
		}
		p.Decimal = d
	case bsontype.Double:
		p.Decimal = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		p.Decimal = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		p.Decimal = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		d, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return err
		}
		p.Decimal = d
	case bsontype.Null:
		p.Decimal = decimal.Zero
	default:
		return fmt.Errorf("cannot decode bson %s into price", t)
	}

	return nil
}
