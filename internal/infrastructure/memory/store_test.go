package memory

import (
	"testing"

	"github.com/oksasatya/go-social-graph/internal/domain/repository"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return NewStore()
	})
}
