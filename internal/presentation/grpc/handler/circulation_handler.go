package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	circulationapp "library-desk/internal/application/circulation"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/presentation/grpc/pb"
)

// CirculationHandler gRPC貸出管理サービスハンドラー
type CirculationHandler struct {
	pb.UnimplementedCirculationServiceServer
	circulationService *circulationapp.CirculationApplicationService
}

// NewCirculationHandler 新しいCirculationHandlerを作成
func NewCirculationHandler(circulationService *circulationapp.CirculationApplicationService) *CirculationHandler {
	return &CirculationHandler{
		circulationService: circulationService,
	}
}

// IssuedBooks 貸出中の書籍一覧
func (h *CirculationHandler) IssuedBooks(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.MemberRequest
	if err := pb.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	list, err := h.circulationService.IssuedBooks(ctx, req.MemberID)
	if err != nil {
		return nil, h.handleError(err)
	}

	return h.encode(circulationapp.NewIssuedBooksDTO(list))
}

// GetMember 会員情報
func (h *CirculationHandler) GetMember(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.MemberRequest
	if err := pb.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	m, err := h.circulationService.Member(ctx, req.MemberID)
	if err != nil {
		return nil, h.handleError(err)
	}

	return h.encode(circulationapp.NewMemberDTO(m))
}

// ReturnBook 書籍の返却
func (h *CirculationHandler) ReturnBook(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.ReturnBookRequest
	if err := pb.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	returned, err := h.circulationService.ReturnBook(ctx, req.TransactionID)
	if err != nil {
		return nil, h.handleError(err)
	}

	return h.encode(circulationapp.NewIssuanceDTO(returned))
}

func (h *CirculationHandler) encode(v interface{}) (*structpb.Struct, error) {
	out, err := pb.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// handleError エラーをgRPCステータスに変換
func (h *CirculationHandler) handleError(err error) error {
	switch {
	case errors.Is(err, member.ErrInvalidMemberID), errors.Is(err, issuance.ErrInvalidIssuanceID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, member.ErrMemberNotFound), errors.Is(err, issuance.ErrIssuanceNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, issuance.ErrAlreadyReturned), errors.Is(err, member.ErrBalanceOutOfRange):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, member.ErrVersionConflict):
		return status.Error(codes.Aborted, err.Error())
	}

	// その他のエラー
	return status.Error(codes.Internal, "internal server error")
}
