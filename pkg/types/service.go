package types

// ServiceName is the fully qualified name of the ramp RPC service
const ServiceName = "ramp.v1.RampService"

const (
	MethodGetAccountInfo     = "GetAccountInfo"
	MethodWhitelistAddress   = "WhitelistAddress"
	MethodRemoveAddress      = "RemoveAddress"
	MethodSetBankAccount     = "SetBankAccount"
	MethodEstimateOnRampFee  = "EstimateOnRampFee"
	MethodEstimateOffRampFee = "EstimateOffRampFee"
)
