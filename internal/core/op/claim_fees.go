package op

func init() {
	Register(TypeClaimFees, func() Operation { return &ClaimFees{} })
}

// ClaimFees pays out every fee unit the participant's position has earned
// and resets its entitlement to zero.
type ClaimFees struct {
	BaseOp
}

// Type returns the operation type.
func (c *ClaimFees) Type() Type { return TypeClaimFees }

// Validate performs static checks.
func (c *ClaimFees) Validate() error {
	return c.BaseOp.validate()
}

// Apply settles the position against the fee accumulators, debits the fee
// pots and stages the outbound claim legs.
func (c *ClaimFees) Apply(ctx *ApplyContext) Result {
	p, existed, err := ctx.readPool()
	if err != nil {
		return resultFromError(err)
	}
	if !existed {
		return ResultNothingToClaim
	}
	pos, posExisted, err := ctx.readPosition(c.Account)
	if err != nil {
		return resultFromError(err)
	}
	if !posExisted {
		return ResultNothingToClaim
	}

	claimA, claimB, err := p.ClaimFees(pos)
	if err != nil {
		return resultFromError(err)
	}

	if err := ctx.writePool(p, true); err != nil {
		return resultFromError(err)
	}
	if err := ctx.writePosition(c.Account, pos, true); err != nil {
		return resultFromError(err)
	}

	ctx.TransferOut(c.Account, ctx.Params.AssetA, claimA)
	ctx.TransferOut(c.Account, ctx.Params.AssetB, claimB)

	ctx.Outcome.FeesClaimedA = claimA
	ctx.Outcome.FeesClaimedB = claimB
	return ResultOK
}

var _ Operation = (*ClaimFees)(nil)
var _ Operation = (*Deposit)(nil)
var _ Operation = (*Withdraw)(nil)
var _ Operation = (*Swap)(nil)
