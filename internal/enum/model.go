package enum

type ModelTier string

const (
	ModelTierStandard ModelTier = "standard"
	ModelTierPremium  ModelTier = "premium"
)

func (t ModelTier) String() string {
	return string(t)
}
