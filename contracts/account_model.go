package contracts

import "io"

// ContractAccount is the on-disk balance sheet of a funded contract:
// the msat amount left to spend and the immutable contract backing
// it. Amount is debited by spends and credited by further funding; the
// Contract variant never changes once created.
type ContractAccount struct {
	Amount   uint64 // msat
	Contract FundedContract
}

func (a ContractAccount) Encode(w io.Writer) error {
	if err := writeUint64(w, a.Amount); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(a.Contract.Kind())}); err != nil {
		return err
	}
	return a.Contract.Encode(w)
}

func DecodeContractAccount(r io.Reader) (ContractAccount, error) {
	var a ContractAccount
	var err error
	if a.Amount, err = readUint64(r); err != nil {
		return a, err
	}
	var kindByte [1]byte
	if _, err := io.ReadFull(r, kindByte[:]); err != nil {
		return a, err
	}
	a.Contract, err = DecodeFundedContract(Kind(kindByte[0]), r)
	return a, err
}

// ContractOutput is the Contract-creating half of ContractOrOfferOutput:
// it funds amount msat into contract, creating it on first use or
// adding to its balance on every subsequent use.
type ContractOutput struct {
	Amount   uint64 // msat
	Contract Contract
}

func (o ContractOutput) Encode(w io.Writer) error {
	if err := writeUint64(w, o.Amount); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(o.Contract.Kind())}); err != nil {
		return err
	}
	return o.Contract.Encode(w)
}
