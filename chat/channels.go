package chat

const (
	ChannelRAG     = "rag"
	ChannelProject = "project"
	ChannelTodo    = "todo"
)

// StorageKey is the durable storage slot holding every channel's history.
const StorageKey = "all_chat_messages"

// ChannelSpec describes one channel and the assistant message it starts with.
type ChannelSpec struct {
	Name    string
	Title   string
	Welcome string
}

// DefaultChannels returns the workspace channels in display order.
func DefaultChannels() []ChannelSpec {
	return []ChannelSpec{
		{
			Name:  ChannelRAG,
			Title: "RAG Chat",
			Welcome: "📚 Selamat datang di Document Assistant!\n\n" +
				"Tanyakan SOP, kebijakan, atau isi dokumen yang sudah di-index.",
		},
		{
			Name:  ChannelProject,
			Title: "Project",
			Welcome: "🚀 Selamat datang di Smart Project Assistant!\n\n" +
				"Saya bisa membantu Anda dengan:\n\n" +
				"📊 Cek Progress Project:\n" +
				"• Sudah sampai mana progress project A?\n" +
				"• Project mana yang paling tertinggal?\n\n" +
				"📋 List & Overview:\n" +
				"• Tampilkan semua project\n" +
				"• Berikan overview semua project\n\n" +
				"⚖️ Perbandingan Project:\n" +
				"• Bandingkan project A dengan project B\n\n" +
				"🔍 Analisis Mendalam:\n" +
				"• Analisis bottleneck di project A\n" +
				"• Task apa yang overdue di project B?",
		},
		{
			Name:  ChannelTodo,
			Title: "To-Do",
			Welcome: "✅ Selamat datang di Task Assistant!\n\n" +
				"Anda bisa membuat task baru, melihat task, atau menandai task selesai.",
		},
	}
}

// ChannelNames returns the names of specs in order.
func ChannelNames(specs []ChannelSpec) []string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names
}
