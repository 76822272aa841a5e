package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	at := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	a := domain.Artifact{
		Station: "8202251",
		Kind:    domain.Hourly,
		Label:   "20240310-20240310",
		Grid: domain.Grid{
			Step:  domain.StepHour,
			Index: []time.Time{at, at.Add(time.Hour)},
			Columns: []domain.Column{
				{Name: "Temp (°C)", Kind: domain.KindNumber},
				{Name: "Weather", Kind: domain.KindText},
			},
			Rows: [][]domain.Value{
				{domain.NumberValue(-3.5), domain.TextValue("Snow")},
				{domain.Null(domain.KindNumber), domain.Null(domain.KindText)},
			},
		},
	}

	msgs, err := buildMessages(a)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	for _, m := range msgs {
		assert.Equal(t, []byte("8202251"), m.Key, "every row of a station shares one key")
	}
	assert.JSONEq(t, `{
		"station": "8202251",
		"kind": "hourly",
		"label": "20240310-20240310",
		"timestamp": "2024-03-10T06:00:00Z",
		"values": {"Temp (°C)": -3.5, "Weather": "Snow"}
	}`, string(msgs[0].Value))

	var second Observation
	require.NoError(t, json.Unmarshal(msgs[1].Value, &second))
	assert.Equal(t, "2024-03-10T07:00:00Z", second.Timestamp)
	assert.Contains(t, second.Values, "Temp (°C)")
	assert.Nil(t, second.Values["Temp (°C)"], "missing values are published as null")

	require.Len(t, msgs[0].Headers, 2)
	assert.Equal(t, "kind", msgs[0].Headers[0].Key)
	assert.Equal(t, []byte("hourly"), msgs[0].Headers[0].Value)
	assert.Equal(t, "step", msgs[0].Headers[1].Key)
	assert.Equal(t, []byte("hour"), msgs[0].Headers[1].Value)
}

func TestBuildMessages_Empty(t *testing.T) {
	msgs, err := buildMessages(domain.Artifact{Station: "1"})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
