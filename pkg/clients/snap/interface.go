package snap

import "context"

// ISnapClient defines the interface for talking to the ramp snap through a
// wallet JSON-RPC bridge. The interface allows replacing the wallet in tests.
type ISnapClient interface {
	// GetSnaps returns the snaps installed in the wallet.
	// This corresponds to the wallet_getSnaps JSON-RPC method.
	GetSnaps(ctx context.Context) (GetSnapsResponse, error)

	// GetSnap returns the installed ramp snap, optionally of an exact version.
	// It returns nil when the snap is not installed.
	GetSnap(ctx context.Context, version string) (*Snap, error)

	// ConnectSnap asks the wallet to install and connect the ramp snap.
	// This corresponds to the wallet_requestSnaps JSON-RPC method.
	ConnectSnap(ctx context.Context, params map[string]any) error

	// SignRequest asks the snap to sign message.
	// This corresponds to wallet_invokeSnap with the sign_request snap method.
	SignRequest(ctx context.Context, message string) (*SignResponse, error)

	// RequestAccounts revokes the current account permission and asks the user
	// to pick accounts again. This corresponds to eth_requestAccounts.
	RequestAccounts(ctx context.Context) ([]string, error)

	Close()
}

// Compile-time check to ensure Client implements ISnapClient
var _ ISnapClient = (*Client)(nil)
