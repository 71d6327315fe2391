package tripsource_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgauge/tripgauge/internal/evaluation"
	"github.com/tripgauge/tripgauge/internal/tripsource"
)

func TestKafkaPublisher_KeepsDriverOffersOnOnePartition(t *testing.T) {
	pub := tripsource.NewKafkaPublisher(tripsource.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "trip-offers",
	})
	t.Cleanup(func() { _ = pub.Close() })

	balancer := tripsource.KafkaBalancer(pub)
	partitions := []int{0, 1, 2, 3, 4, 5}

	var chosen []int
	for i, fare := range []float64{12, 31.5, 8, 22} {
		msg, err := tripsource.KafkaMessage(tripsource.Envelope{
			DriverID: "drv_1",
			Offer: evaluation.TripOffer{
				ID:        "off_" + string(rune('a'+i)),
				Fare:      fare,
				Timestamp: time.Now(),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "drv_1", string(msg.Key))
		chosen = append(chosen, balancer.Balance(msg, partitions...))
	}

	for _, p := range chosen[1:] {
		assert.Equal(t, chosen[0], p, "offers of one driver must share a partition")
	}
}
