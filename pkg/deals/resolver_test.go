package deals

import (
	"testing"

	"shopwise/pkg/models"

	"github.com/shopspring/decimal"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func offer(retailer string, base float64, inStock bool, opts ...models.PaymentOption) models.Offer {
	return models.Offer{
		Retailer:       retailer,
		BasePrice:      dec(base),
		InStock:        inStock,
		PaymentOptions: opts,
	}
}

func pct(v float64) models.PaymentOption {
	return models.PaymentOption{Kind: models.KindCard, Label: "card", Discount: models.Percent(v)}
}

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name   string
		offer  models.Offer
		option models.PaymentOption
		want   float64
	}{
		{
			name:   "Percentage discount",
			offer:  offer("A", 1000, true),
			option: pct(10),
			want:   900,
		},
		{
			name:   "Zero discount",
			offer:  offer("B", 950, true),
			option: pct(0),
			want:   950,
		},
		{
			name:   "Final price wins over discount",
			offer:  offer("C", 75999, true),
			option: models.PaymentOption{Discount: models.Percent(50), FinalPrice: models.Price(71999)},
			want:   71999,
		},
		{
			name:   "No discount and no final price",
			offer:  offer("D", 500, true),
			option: models.PaymentOption{Kind: models.KindEMI, Label: "No Cost EMI"},
			want:   500,
		},
		{
			name:   "Discount above 100 clamps to zero price",
			offer:  offer("E", 200, true),
			option: pct(150),
			want:   0,
		},
		{
			name:   "Negative discount is ignored",
			offer:  offer("F", 200, true),
			option: pct(-20),
			want:   200,
		},
		{
			name:   "Negative final price clamps to zero",
			offer:  offer("G", 200, true),
			option: models.PaymentOption{FinalPrice: models.Price(-5)},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectivePrice(tt.offer, tt.option)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("EffectivePrice() = %s, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectivePriceNeverNegative(t *testing.T) {
	for base := 0.0; base <= 2000; base += 137.5 {
		for d := 0.0; d <= 300; d += 12.5 {
			got := EffectivePrice(offer("X", base, true), pct(d))
			if got.IsNegative() {
				t.Fatalf("EffectivePrice(base=%v, discount=%v) = %s, want >= 0", base, d, got)
			}
		}
	}
}

func TestBestDeal(t *testing.T) {
	offers := []models.Offer{
		offer("A", 1000, true, pct(10)),
		offer("B", 950, true, pct(0)),
	}

	got := BestDeal(offers)
	if got == nil {
		t.Fatal("BestDeal() = nil, want A at 900")
	}
	if got.Retailer != "A" || !got.Price.Equal(dec(900)) {
		t.Errorf("BestDeal() = %s at %s, want A at 900", got.Retailer, got.Price)
	}
}

func TestBestDealEmpty(t *testing.T) {
	if got := BestDeal(nil); got != nil {
		t.Errorf("BestDeal(nil) = %+v, want nil", got)
	}
	if got := BestDeal([]models.Offer{}); got != nil {
		t.Errorf("BestDeal([]) = %+v, want nil", got)
	}
}

func TestBestDealSkipsOutOfStock(t *testing.T) {
	offers := []models.Offer{
		offer("Cheap", 100, false, pct(50)),
		offer("Stocked", 900, true, pct(0)),
	}

	got := BestDeal(offers)
	if got == nil || got.Retailer != "Stocked" {
		t.Fatalf("BestDeal() = %+v, want Stocked", got)
	}

	if got := BestDeal(offers[:1]); got != nil {
		t.Errorf("BestDeal(only out of stock) = %+v, want nil", got)
	}
}

func TestBestDealTieKeepsInputOrder(t *testing.T) {
	offers := []models.Offer{
		offer("First", 1000, true, pct(10)),
		offer("Second", 900, true, pct(0)),
	}

	for i := 0; i < 10; i++ {
		got := BestDeal(offers)
		if got == nil || got.Retailer != "First" {
			t.Fatalf("run %d: BestDeal() = %+v, want First", i, got)
		}
	}
}

func TestBestDealImplicitOption(t *testing.T) {
	offers := []models.Offer{
		offer("WithOptions", 1000, true, pct(5)),
		offer("Bare", 800, true),
	}

	got := BestDeal(offers)
	if got == nil || got.Retailer != "Bare" {
		t.Fatalf("BestDeal() = %+v, want Bare", got)
	}
	if got.Option.Label != StandardOption.Label {
		t.Errorf("option label = %q, want %q", got.Option.Label, StandardOption.Label)
	}
	if !got.Price.Equal(dec(800)) {
		t.Errorf("price = %s, want 800", got.Price)
	}
}

func TestSavingsPercent(t *testing.T) {
	tests := []struct {
		original, final float64
		want            int
	}{
		{1000, 900, 10},
		{0, 100, 0},
		{-10, 5, 0},
		{100, 150, 0},
		{100, -50, 100},
		{1099.99, 999.99, 9},
		{399.99, 348.99, 13},
		{200, 199, 1},
		{200, 201, 0},
	}

	for _, tt := range tests {
		got := SavingsPercent(dec(tt.original), dec(tt.final))
		if got != tt.want {
			t.Errorf("SavingsPercent(%v, %v) = %d, want %d", tt.original, tt.final, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	offers := []models.Offer{
		offer("A", 1000, true, pct(10), pct(0)),
		offer("B", 950, true, pct(0), pct(20)),
		offer("C", 10, false, pct(0), pct(0)),
		offer("D", 900, true, pct(0), pct(5)),
	}

	got := Rank(offers)
	if len(got) != 6 {
		t.Fatalf("len(Rank()) = %d, want 6", len(got))
	}

	want := []struct {
		retailer string
		price    float64
	}{
		{"B", 760},
		{"D", 855},
		{"A", 900},
		{"D", 900},
		{"B", 950},
		{"A", 1000},
	}
	for i, w := range want {
		if got[i].Retailer != w.retailer || !got[i].Price.Equal(dec(w.price)) {
			t.Errorf("Rank()[%d] = %s at %s, want %s at %v", i, got[i].Retailer, got[i].Price, w.retailer, w.price)
		}
	}

	for _, d := range got {
		if d.Retailer == "C" {
			t.Errorf("Rank() included out-of-stock retailer C")
		}
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", got)
	}
}
