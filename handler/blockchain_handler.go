package handler

import (
	"context"
	"net/http"

	"saveai-api/common"
	"saveai-api/model"
)

type IChainStatusService interface {
	Status(ctx context.Context) *model.ChainStatus
}

type BlockchainHandler struct {
	transactions ITransactionService
	chain        IChainStatusService
}

func NewBlockchainHandler(transactions ITransactionService, chain IChainStatusService) *BlockchainHandler {
	return &BlockchainHandler{transactions: transactions, chain: chain}
}

// VerifyAttestation godoc
// @Summary      Verify a blockchain attestation
// @Description  Looks up the transaction attested under the hash, recomputes its hash and reports confirmations. The transaction body is included for its owner.
// @Tags         blockchain
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.VerifyRequest true "Attestation hash"
// @Success      200  {object}  common.Envelope{data=model.VerificationResult}
// @Failure      400  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/v1/blockchain/verify [post]
func (h *BlockchainHandler) VerifyAttestation(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	var req model.VerifyRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	result, err := h.transactions.VerifyByHash(r.Context(), req.BlockchainHash, caller)
	if err != nil {
		return serviceError(err, "Could not verify attestation")
	}

	common.Respond(w, http.StatusOK, result)
	return nil
}

// ChainStatus godoc
// @Summary      Blockchain node status
// @Tags         blockchain
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Envelope{data=model.ChainStatus}
// @Router       /api/v1/blockchain/status [get]
func (h *BlockchainHandler) ChainStatus(w http.ResponseWriter, r *http.Request) *common.AppError {
	common.Respond(w, http.StatusOK, h.chain.Status(r.Context()))
	return nil
}
