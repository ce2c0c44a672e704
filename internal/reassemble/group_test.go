package reassemble

import (
	"testing"

	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup(t *testing.T) {
	records := []model.ClassificationRecord{
		{PageNumber: 1, Filename: "payslip.pdf", Category: model.CategoryPayslip, Summary: "March payslip"},
		{PageNumber: 2, Filename: "bank.pdf", Category: model.CategoryBankStatement, Summary: "Statement page 1"},
		{PageNumber: 4, Filename: "bank.pdf", Category: model.CategoryCreditCardStatement, Summary: "Statement page 3"},
		{PageNumber: 3, Filename: "bank.pdf", Category: model.CategoryBankStatement, Summary: "Statement page 2"},
		{PageNumber: 5, Filename: "payslip.pdf", Category: model.CategoryPayslip, Summary: "April payslip"},
	}

	groups, anomalies := Group(records, nil)
	require.Len(t, groups, 2)

	assert.Equal(t, "payslip.pdf", groups[0].Filename)
	assert.Equal(t, "March payslip", groups[0].Summary)
	assert.Equal(t, []int{1, 5}, groups[0].Pages)

	assert.Equal(t, "bank.pdf", groups[1].Filename)
	assert.Equal(t, model.CategoryBankStatement, groups[1].Category, "first category wins")
	assert.Equal(t, []int{2, 3, 4}, groups[1].Pages)

	require.Len(t, anomalies, 1)
	assert.Equal(t, "bank.pdf", anomalies[0].Filename)
	assert.Equal(t, 4, anomalies[0].Page)
}

func TestGroupPagesStrictlyIncreasing(t *testing.T) {
	records := []model.ClassificationRecord{
		{PageNumber: 10, Filename: "a.pdf", Category: "Other"},
		{PageNumber: 9, Filename: "a.pdf", Category: "Other"},
		{PageNumber: 10, Filename: "a.pdf", Category: "Other"},
		{PageNumber: 11, Filename: "a.pdf", Category: "Other"},
	}

	groups, anomalies := Group(records, nil)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{9, 10, 11}, groups[0].Pages)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 10, anomalies[0].Page)

	for i := 1; i < len(groups[0].Pages); i++ {
		assert.Greater(t, groups[0].Pages[i], groups[0].Pages[i-1])
	}
}

func TestGroupEmpty(t *testing.T) {
	groups, anomalies := Group(nil, nil)
	assert.Empty(t, groups)
	assert.Empty(t, anomalies)
}
