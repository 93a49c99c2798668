package model

// Attachment 消息附件
// 上传时先独立落库（MessageID 为空，即"暂存"状态），
// 发送消息时再绑定到消息上；消息本身不存储文件内容
// URL 为对外可访问的下载地址，存储本身是外部协作方

type Attachment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MessageID *uint  `gorm:"index;comment:所属消息ID(暂存时为空)" json:"-"`
	Name      string `gorm:"type:varchar(255);not null;comment:原始文件名" json:"name"`
	Size      int64  `gorm:"not null;comment:文件大小(字节)" json:"size"`
	Type      string `gorm:"type:varchar(100);comment:MIME类型" json:"type"`
	URL       string `gorm:"type:varchar(500);not null;comment:访问地址" json:"url"`
}

func (Attachment) TableName() string { return "attachment" }
