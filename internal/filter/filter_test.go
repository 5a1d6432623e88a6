package filter_test

import (
	"testing"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleClients() []domain.Client {
	return []domain.Client{
		{ID: "1", FullName: "Ana Ruiz", Phone: "987654321", DocumentNumber: "40123456", Status: domain.StatusActive, ServiceType: domain.ServiceMobile, Email: strPtr("Ana.Ruiz@Example.com")},
		{ID: "2", FullName: "Beto Lopez", Phone: "912345678", DocumentNumber: "20AB9911", Status: domain.StatusSuspended, ServiceType: domain.ServiceCableTV},
		{ID: "3", FullName: "Carla Díaz", Phone: "955000111", DocumentNumber: "77001122", Status: domain.StatusActive, ServiceType: domain.ServiceTrioBundle, Email: strPtr("carla@mail.pe")},
	}
}

func ids(cs []domain.Client) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestApply_Scenarios(t *testing.T) {
	list := []domain.Client{
		{ID: "ana", FullName: "Ana Ruiz", Status: domain.StatusActive, ServiceType: "Móvil"},
		{ID: "beto", FullName: "Beto Lopez", Status: domain.StatusSuspended, ServiceType: "TV Cable"},
	}

	got := filter.Apply(list, filter.Criteria{Search: "ana", Status: filter.All, Service: filter.All})
	require.Equal(t, []string{"ana"}, ids(got))

	got = filter.Apply(list, filter.Criteria{Status: "Suspended", Service: filter.All})
	require.Equal(t, []string{"beto"}, ids(got))

	got = filter.Apply(list, filter.Criteria{Status: filter.All, Service: "Móvil"})
	require.Equal(t, []string{"ana"}, ids(got))
}

func TestApply_IdentityPreservesOrder(t *testing.T) {
	list := sampleClients()
	got := filter.Apply(list, filter.Default())
	require.Equal(t, list, got)

	got = filter.Apply(list, filter.Criteria{})
	require.Equal(t, list, got)
}

func TestApply_Idempotent(t *testing.T) {
	list := sampleClients()
	cases := []filter.Criteria{
		{Search: "a", Status: filter.All, Service: filter.All},
		{Search: "9", Status: string(domain.StatusActive), Service: filter.All},
		{Search: "", Status: filter.All, Service: domain.ServiceCableTV},
		{Search: "zzz", Status: filter.All, Service: filter.All},
	}
	for _, c := range cases {
		once := filter.Apply(list, c)
		twice := filter.Apply(once, c)
		assert.Equal(t, once, twice, "criteria %+v", c)
	}
}

func TestApply_SearchFields(t *testing.T) {
	list := sampleClients()

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"name is case-insensitive", "RUIZ", []string{"1"}},
		{"email is case-insensitive", "EXAMPLE.COM", []string{"1"}},
		{"email substring", "mail.pe", []string{"3"}},
		{"phone substring", "912", []string{"2"}},
		{"document number substring", "7700", []string{"3"}},
		{"no match", "nobody", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Apply(list, filter.Criteria{Search: tt.search, Status: filter.All, Service: filter.All})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_DocumentNumberIsNotLowercased(t *testing.T) {
	list := sampleClients()

	// the term is lowercased, the stored document number is not
	got := filter.Apply(list, filter.Criteria{Search: "20AB", Status: filter.All, Service: filter.All})
	assert.Empty(t, got)

	list[1].DocumentNumber = "20ab9911"
	got = filter.Apply(list, filter.Criteria{Search: "20AB", Status: filter.All, Service: filter.All})
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestApply_CombinesPredicates(t *testing.T) {
	list := sampleClients()
	got := filter.Apply(list, filter.Criteria{Search: "a", Status: string(domain.StatusActive), Service: domain.ServiceTrioBundle})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	list := sampleClients()
	before := append([]domain.Client(nil), list...)
	_ = filter.Apply(list, filter.Criteria{Search: "beto", Status: filter.All, Service: filter.All})
	assert.Equal(t, before, list)
}

func TestCriteria_Active(t *testing.T) {
	assert.False(t, filter.Default().Active())
	assert.False(t, filter.Criteria{}.Active())
	assert.True(t, filter.Criteria{Search: "x"}.Active())
	assert.True(t, filter.Criteria{Status: "Active", Service: filter.All}.Active())
	assert.True(t, filter.Criteria{Status: filter.All, Service: domain.ServiceMobile}.Active())
}
