package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyABC(t *testing.T) {
	sales := []ProductSales{
		{ProductID: 1, Name: "Ramen", Revenue: dec("5000")},
		{ProductID: 2, Name: "Curry", Revenue: dec("3000")},
		{ProductID: 3, Name: "Gyoza", Revenue: dec("1500")},
		{ProductID: 4, Name: "Tea", Revenue: dec("500")},
	}

	rows := ClassifyABC(sales)
	require.Len(t, rows, 4)

	// Ramen alone is 50% cumulative: class A.
	require.Equal(t, "A", rows[0].Class)
	require.Equal(t, 1, rows[0].Rank)
	require.True(t, rows[0].CumulativeShare.Equal(dec("50")))

	// Curry brings it to 80%: class B.
	require.Equal(t, "B", rows[1].Class)
	require.True(t, rows[1].CumulativeShare.Equal(dec("80")))

	// Gyoza reaches 95%: class C.
	require.Equal(t, "C", rows[2].Class)
	require.Equal(t, "C", rows[3].Class)
}

func TestClassifyABCBoundary(t *testing.T) {
	// Exactly 70% cumulative stays in class A.
	sales := []ProductSales{
		{ProductID: 1, Revenue: dec("70")},
		{ProductID: 2, Revenue: dec("20")},
		{ProductID: 3, Revenue: dec("10")},
	}
	rows := ClassifyABC(sales)
	require.Equal(t, "A", rows[0].Class)
	require.Equal(t, "B", rows[1].Class, "exactly 90% stays in class B")
	require.Equal(t, "C", rows[2].Class)
}

func TestClassifyABCEmpty(t *testing.T) {
	require.Empty(t, ClassifyABC(nil))
}

func TestCategoryDistribution(t *testing.T) {
	sales := []ProductSales{
		{ProductID: 1, Category: "noodles", Revenue: dec("600")},
		{ProductID: 2, Category: "noodles", Revenue: dec("150")},
		{ProductID: 3, Category: "", Revenue: dec("250")},
	}
	rows := categoryDistribution(sales)
	require.Len(t, rows, 2)
	require.Equal(t, "noodles", rows[0].Category)
	require.True(t, rows[0].Share.Equal(dec("75")))
	require.Equal(t, "uncategorized", rows[1].Category)
	require.True(t, rows[1].Share.Equal(dec("25")))
}
