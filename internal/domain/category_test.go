package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"Registration", CategoryRegistration},
		{"  language ", CategoryLanguage},
		{"Exam", CategoryExam},
		{"Exams", CategoryExam},
		{"exams", CategoryExam},
		{"Documents", CategoryDocument},
		{"Certification", CategoryCertification},
		{"Career", CategoryTraining},
		{"CAREER", CategoryTraining},
		{"Custom", CategoryCustom},
		{"", CategoryTraining},
		{"Visa paperwork", CategoryTraining},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCategory(tt.raw))
		})
	}
}

func TestResolveCustomCategory_EmptyIsCustom(t *testing.T) {
	assert.Equal(t, CategoryCustom, ResolveCustomCategory(""))
	assert.Equal(t, CategoryCustom, ResolveCustomCategory("   "))
	assert.Equal(t, CategoryExam, ResolveCustomCategory("exam"))
	assert.Equal(t, CategoryTraining, ResolveCustomCategory("bogus"))
}

func TestCategoryOrder_MatchesMeta(t *testing.T) {
	for i, c := range CategoryOrder {
		assert.Equal(t, i+1, c.OrderIndex(), c)
		assert.NotEmpty(t, c.Meta().Color)
		assert.True(t, c.IsValid())
	}
	assert.False(t, Category("Career").IsValid())
	assert.Equal(t, "Exams", CategoryExam.Meta().Label)
}
