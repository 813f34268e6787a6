package format

import "strconv"

// Block identifies the role of a block in the tree. Block 0 is the implicit
// root covering file-level tags outside any explicit block.
type Block int32

const (
	BlockMeas              Block = 100
	BlockMeasInfo          Block = 101
	BlockRawData           Block = 102
	BlockProcessedData     Block = 103
	BlockSubject           Block = 106
	BlockIsotrak           Block = 107
	BlockHPIMeas           Block = 108
	BlockHPIResult         Block = 109
	BlockDACQPars          Block = 117
	BlockProj              Block = 313
	BlockProjItem          Block = 314
	BlockMNE               Block = 350
	BlockMNENamedMatrix    Block = 357
	BlockMNEBadChannels    Block = 359
	BlockMNECTFComp        Block = 370
	BlockMNECTFCompData    Block = 371
	BlockProcessingHistory Block = 900
)

func (b Block) String() string {
	switch b {
	case 0:
		return "root"
	case BlockMeas:
		return "meas"
	case BlockMeasInfo:
		return "meas_info"
	case BlockRawData:
		return "raw_data"
	case BlockProcessedData:
		return "processed_data"
	case BlockSubject:
		return "subject"
	case BlockIsotrak:
		return "isotrak"
	case BlockHPIMeas:
		return "hpi_meas"
	case BlockHPIResult:
		return "hpi_result"
	case BlockDACQPars:
		return "dacq_pars"
	case BlockProj:
		return "proj"
	case BlockProjItem:
		return "proj_item"
	case BlockMNE:
		return "mne"
	case BlockMNENamedMatrix:
		return "mne_named_matrix"
	case BlockMNEBadChannels:
		return "mne_bad_channels"
	case BlockMNECTFComp:
		return "mne_ctf_comp"
	case BlockMNECTFCompData:
		return "mne_ctf_comp_data"
	case BlockProcessingHistory:
		return "processing_history"
	default:
		return "block_" + strconv.Itoa(int(b))
	}
}
